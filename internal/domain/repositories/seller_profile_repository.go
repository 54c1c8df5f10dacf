package repositories

import (
	"context"

	"github.com/google/uuid"
	"marketplace.backend/internal/domain/entities"
)

// SellerProfileRepository defines seller profile data operations
type SellerProfileRepository interface {
	Create(ctx context.Context, profile *entities.SellerProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerProfile, error)
	SetSubscriptionActive(ctx context.Context, userID uuid.UUID, active bool) error
}
