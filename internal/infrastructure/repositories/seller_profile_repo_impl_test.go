package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
)

func TestSellerProfileRepository_CreateGetAndFlag(t *testing.T) {
	db := newTestDB(t)
	createSellerProfileTable(t, db)
	repo := NewSellerProfileRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	requestID := uuid.New()
	profile := &entities.SellerProfile{
		UserID:             userID,
		SellerRequestID:    uuid.NullUUID{UUID: requestID, Valid: true},
		BusinessInfo:       entities.BusinessInfo{ShopName: "Ana's"},
		Status:             entities.SellerProfileActive,
		VerificationStatus: entities.VerificationVerified,
		VerifiedAt:         null.TimeFrom(time.Now().UTC()),
		Settings:           entities.DefaultSellerSettings(),
	}
	require.NoError(t, repo.Create(ctx, profile))

	got, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, profile.ID, got.ID)
	require.Equal(t, requestID, got.SellerRequestID.UUID)
	require.Equal(t, "grid", got.Settings.Display)
	require.Equal(t, "USD", got.Settings.Currency)
	require.True(t, got.Settings.Notifications)
	require.False(t, got.SubscriptionActive)

	require.NoError(t, repo.SetSubscriptionActive(ctx, userID, true))
	got, err = repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.True(t, got.SubscriptionActive)

	dup := &entities.SellerProfile{UserID: userID, Status: entities.SellerProfileActive, Settings: entities.DefaultSellerSettings()}
	require.ErrorIs(t, repo.Create(ctx, dup), domainerrors.ErrAlreadyExists)

	_, err = repo.GetByUserID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	require.ErrorIs(t, repo.SetSubscriptionActive(ctx, uuid.New(), true), domainerrors.ErrNotFound)
}
