package repositories

import (
	"context"

	"marketplace.backend/internal/domain/entities"
)

// NotificationRepository defines in-app notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
}
