package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"marketplace.backend/internal/domain/entities"
)

// SubscriptionRepository defines subscription data operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entities.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Subscription, error)
	// GetActiveByUserID returns the user's active, unexpired subscription, or ErrNotFound.
	GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (*entities.Subscription, error)
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.Subscription, error)
	SetTransaction(ctx context.Context, id uuid.UUID, transactionID, paymentURL string) error
	// UpdateStatus moves a subscription forward, stamping activatedAt or cancelledAt as needed.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.SubscriptionStatus, at time.Time) error
	ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]*entities.Subscription, error)
}
