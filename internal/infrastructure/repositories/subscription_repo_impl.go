package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/infrastructure/models"
	"marketplace.backend/pkg/utils"
)

var subscriptionStatuses = []entities.SubscriptionStatus{
	entities.SubscriptionPending,
	entities.SubscriptionActive,
	entities.SubscriptionCancelled,
	entities.SubscriptionExpired,
	entities.SubscriptionFailed,
}

// SubscriptionRepository implements subscription data operations
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a subscription. ExpiresAt must already be set by the caller.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *entities.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = utils.GenerateUUIDv7()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.UpdatedAt = sub.CreatedAt

	m := &models.Subscription{
		ID:            sub.ID,
		UserID:        sub.UserID,
		SellerID:      nullUUIDPtr(sub.SellerID),
		PlanID:        sub.PlanID,
		BillingCycle:  string(sub.BillingCycle),
		Amount:        sub.Amount,
		Status:        string(sub.Status),
		TransactionID: sub.TransactionID.Ptr(),
		PaymentURL:    sub.PaymentURL.Ptr(),
		ExpiresAt:     sub.ExpiresAt,
		ActivatedAt:   sub.ActivatedAt.Ptr(),
		CancelledAt:   sub.CancelledAt.Ptr(),
		CreatedAt:     sub.CreatedAt,
		UpdatedAt:     sub.UpdatedAt,
	}
	return translateError(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a subscription by ID
func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Subscription, error) {
	var m models.Subscription
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toSubscriptionEntity(&m), nil
}

// GetActiveByUserID gets the active subscription that has not yet expired
func (r *SubscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (*entities.Subscription, error) {
	var m models.Subscription
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND status = ? AND expires_at > ?", userID, string(entities.SubscriptionActive), now).
		Order("expires_at DESC").
		First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return toSubscriptionEntity(&m), nil
}

// GetLatestByUserID gets the user's most recent subscription of any status
func (r *SubscriptionRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.Subscription, error) {
	var m models.Subscription
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC").First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toSubscriptionEntity(&m), nil
}

// SetTransaction stores the gateway reference of a pending subscription
func (r *SubscriptionRepository) SetTransaction(ctx context.Context, id uuid.UUID, transactionID, paymentURL string) error {
	result := GetDB(ctx, r.db).Model(&models.Subscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"transaction_id": transactionID,
		"payment_url":    paymentURL,
		"updated_at":     time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpdateStatus moves a subscription forward. The write is guarded on the
// current status so a stale caller cannot move it backwards.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.SubscriptionStatus, at time.Time) error {
	from := make([]string, 0, 2)
	for _, s := range subscriptionStatuses {
		if entities.CanTransitionSubscription(s, status) {
			from = append(from, string(s))
		}
	}
	if len(from) == 0 {
		return domainerrors.ErrInvalidTransition
	}

	values := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	switch status {
	case entities.SubscriptionActive:
		values["activated_at"] = at
	case entities.SubscriptionCancelled:
		values["cancelled_at"] = at
	}

	db := GetDB(ctx, r.db)
	result := db.Model(&models.Subscription{}).Where("id = ? AND status IN ?", id, from).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Subscription{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainerrors.ErrNotFound
	}
	return domainerrors.ErrInvalidTransition
}

// ListDueForExpiry returns active subscriptions whose expiresAt has passed
func (r *SubscriptionRepository) ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]*entities.Subscription, error) {
	var rows []models.Subscription
	query := GetDB(ctx, r.db).
		Where("status = ? AND expires_at <= ?", string(entities.SubscriptionActive), now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	subs := make([]*entities.Subscription, 0, len(rows))
	for i := range rows {
		subs = append(subs, toSubscriptionEntity(&rows[i]))
	}
	return subs, nil
}

func toSubscriptionEntity(m *models.Subscription) *entities.Subscription {
	return &entities.Subscription{
		ID:            m.ID,
		UserID:        m.UserID,
		SellerID:      uuidPtrToNull(m.SellerID),
		PlanID:        m.PlanID,
		BillingCycle:  entities.BillingCycle(m.BillingCycle),
		Amount:        m.Amount,
		Status:        entities.SubscriptionStatus(m.Status),
		TransactionID: null.StringFromPtr(m.TransactionID),
		PaymentURL:    null.StringFromPtr(m.PaymentURL),
		ExpiresAt:     m.ExpiresAt,
		ActivatedAt:   null.TimeFromPtr(m.ActivatedAt),
		CancelledAt:   null.TimeFromPtr(m.CancelledAt),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
