package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/infrastructure/models"
)

func TestNotificationRepository_Create(t *testing.T) {
	db := newTestDB(t)
	createNotificationTable(t, db)
	repo := NewNotificationRepository(db)

	n := &entities.Notification{
		UserID:  uuid.New(),
		Type:    entities.NotificationSellerApproved,
		Title:   "Welcome aboard",
		Message: "Your seller account is active",
		Data:    map[string]interface{}{"sellerRequestId": "abc"},
	}
	require.NoError(t, repo.Create(context.Background(), n))
	require.NotEqual(t, uuid.Nil, n.ID)

	var m models.Notification
	require.NoError(t, db.Where("id = ?", n.ID).First(&m).Error)
	require.Equal(t, "seller_approved", m.Type)
	require.Equal(t, "abc", m.Data["sellerRequestId"])
}
