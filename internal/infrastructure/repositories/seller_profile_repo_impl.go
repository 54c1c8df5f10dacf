package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/infrastructure/models"
	"marketplace.backend/pkg/utils"
)

// SellerProfileRepository implements seller profile data operations
type SellerProfileRepository struct {
	db *gorm.DB
}

// NewSellerProfileRepository creates a new seller profile repository
func NewSellerProfileRepository(db *gorm.DB) *SellerProfileRepository {
	return &SellerProfileRepository{db: db}
}

// Create inserts a profile. A second profile for the same user returns ErrAlreadyExists.
func (r *SellerProfileRepository) Create(ctx context.Context, profile *entities.SellerProfile) error {
	now := time.Now().UTC()
	if profile.ID == uuid.Nil {
		profile.ID = utils.GenerateUUIDv7()
	}
	if profile.Documents == nil {
		profile.Documents = entities.Documents{}
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	m := &models.SellerProfile{
		ID:                 profile.ID,
		UserID:             profile.UserID,
		SellerRequestID:    nullUUIDPtr(profile.SellerRequestID),
		BusinessInfo:       datatypes.NewJSONType(profile.BusinessInfo),
		Documents:          datatypes.NewJSONType(profile.Documents),
		Status:             string(profile.Status),
		VerificationStatus: string(profile.VerificationStatus),
		VerifiedAt:         profile.VerifiedAt.Ptr(),
		Settings:           datatypes.NewJSONType(profile.Settings),
		SubscriptionActive: profile.SubscriptionActive,
		CreatedAt:          profile.CreatedAt,
		UpdatedAt:          profile.UpdatedAt,
	}
	return translateError(GetDB(ctx, r.db).Create(m).Error)
}

// GetByUserID gets the profile owned by a user
func (r *SellerProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerProfile, error) {
	var m models.SellerProfile
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toSellerProfileEntity(&m), nil
}

// SetSubscriptionActive flips the paid-capability flag on the user's profile
func (r *SellerProfileRepository) SetSubscriptionActive(ctx context.Context, userID uuid.UUID, active bool) error {
	result := GetDB(ctx, r.db).Model(&models.SellerProfile{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"subscription_active": active,
		"updated_at":          time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toSellerProfileEntity(m *models.SellerProfile) *entities.SellerProfile {
	docs := m.Documents.Data()
	if docs == nil {
		docs = entities.Documents{}
	}
	return &entities.SellerProfile{
		ID:                 m.ID,
		UserID:             m.UserID,
		SellerRequestID:    uuidPtrToNull(m.SellerRequestID),
		BusinessInfo:       m.BusinessInfo.Data(),
		Documents:          docs,
		Status:             entities.SellerProfileStatus(m.Status),
		VerificationStatus: entities.VerificationStatus(m.VerificationStatus),
		VerifiedAt:         null.TimeFromPtr(m.VerifiedAt),
		Settings:           m.Settings.Data(),
		SubscriptionActive: m.SubscriptionActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
