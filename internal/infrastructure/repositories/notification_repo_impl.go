package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/infrastructure/models"
	"marketplace.backend/pkg/utils"
)

// NotificationRepository implements in-app notification storage
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row
func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = utils.GenerateUUIDv7()
	}
	n.CreatedAt = time.Now().UTC()

	m := &models.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Data:      datatypes.JSONMap(n.Data),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	return translateError(GetDB(ctx, r.db).Create(m).Error)
}
