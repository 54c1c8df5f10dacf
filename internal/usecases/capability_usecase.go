package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/domain/repositories"
)

// CapabilityUsecase answers "may this user sell right now". The answer is
// computed from the profile, the trial window and the active subscription;
// User.role is not consulted.
type CapabilityUsecase struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.SellerProfileRepository
	subRepo     repositories.SubscriptionRepository
	now         func() time.Time
}

// NewCapabilityUsecase creates a new capability usecase
func NewCapabilityUsecase(
	userRepo repositories.UserRepository,
	profileRepo repositories.SellerProfileRepository,
	subRepo repositories.SubscriptionRepository,
) *CapabilityUsecase {
	return &CapabilityUsecase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		subRepo:     subRepo,
		now:         utcNow,
	}
}

// Resolve returns the user's current seller capability
func (u *CapabilityUsecase) Resolve(ctx context.Context, userID uuid.UUID) (*entities.SellerCapability, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}

	profile, err := u.profileRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	now := u.now()
	sub, err := u.subRepo.GetActiveByUserID(ctx, userID, now)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	capability := entities.ResolveCapability(user, profile, sub, now)
	return &capability, nil
}

// SetClock replaces the time source, for tests and one-shot tooling.
func (u *CapabilityUsecase) SetClock(now func() time.Time) {
	if now != nil {
		u.now = now
	}
}
