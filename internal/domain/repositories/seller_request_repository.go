package repositories

import (
	"context"

	"github.com/google/uuid"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/pkg/utils"
)

// SellerRequestRepository defines seller request data operations
type SellerRequestRepository interface {
	Create(ctx context.Context, req *entities.SellerRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SellerRequest, error)
	// GetActiveByUserID returns the user's pending or approved request, or ErrNotFound.
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerRequest, error)
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerRequest, error)
	// UpdateReview persists the status and review stamps of a request.
	UpdateReview(ctx context.Context, req *entities.SellerRequest) error
	List(ctx context.Context, status entities.SellerRequestStatus, pagination utils.PaginationParams) ([]*entities.SellerRequest, int64, error)
}
