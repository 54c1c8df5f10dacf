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

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	now := time.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = utils.GenerateUUIDv7()
	}
	if user.Role == "" {
		user.Role = entities.UserRoleUser
	}
	if user.Status == "" {
		user.Status = entities.UserStatusActive
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	m := &models.User{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		PasswordHash:  user.PasswordHash,
		Role:          string(user.Role),
		Status:        string(user.Status),
		IsTrialActive: user.IsTrialActive,
		TrialEndsAt:   user.TrialEndsAt.Ptr(),
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
	return translateError(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toUserEntity(&m), nil
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toUserEntity(&m), nil
}

// UpdateRole sets the user's role and account status
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entities.UserRole, status entities.UserStatus) error {
	return r.updates(ctx, id, map[string]interface{}{
		"role":       string(role),
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	})
}

// UpdateTrial writes the trial window together with the role it implies
func (r *UserRepository) UpdateTrial(ctx context.Context, id uuid.UUID, active bool, endsAt *time.Time, role entities.UserRole) error {
	return r.updates(ctx, id, map[string]interface{}{
		"is_trial_active": active,
		"trial_ends_at":   endsAt,
		"role":            string(role),
		"updated_at":      time.Now().UTC(),
	})
}

// ListExpiredTrials returns users whose trial flag is still set past trialEndsAt
func (r *UserRepository) ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*entities.User, error) {
	var rows []models.User
	query := GetDB(ctx, r.db).
		Where("is_trial_active = ? AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?", true, now).
		Order("trial_ends_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*entities.User, 0, len(rows))
	for i := range rows {
		users = append(users, toUserEntity(&rows[i]))
	}
	return users, nil
}

func (r *UserRepository) updates(ctx context.Context, id uuid.UUID, values map[string]interface{}) error {
	result := GetDB(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toUserEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:            m.ID,
		Email:         m.Email,
		Name:          m.Name,
		PasswordHash:  m.PasswordHash,
		Role:          entities.UserRole(m.Role),
		Status:        entities.UserStatus(m.Status),
		IsTrialActive: m.IsTrialActive,
		TrialEndsAt:   null.TimeFromPtr(m.TrialEndsAt),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
