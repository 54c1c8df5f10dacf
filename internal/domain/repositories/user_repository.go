package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"marketplace.backend/internal/domain/entities"
)

// UserRepository defines user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role entities.UserRole, status entities.UserStatus) error
	UpdateTrial(ctx context.Context, id uuid.UUID, active bool, endsAt *time.Time, role entities.UserRole) error
	ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*entities.User, error)
}
