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

// SellerRequestRepository implements seller request data operations
type SellerRequestRepository struct {
	db *gorm.DB
}

// NewSellerRequestRepository creates a new seller request repository
func NewSellerRequestRepository(db *gorm.DB) *SellerRequestRepository {
	return &SellerRequestRepository{db: db}
}

// Create inserts a pending request. A concurrent active request for the same
// user surfaces as ErrAlreadyExists via the partial unique index.
func (r *SellerRequestRepository) Create(ctx context.Context, req *entities.SellerRequest) error {
	now := time.Now().UTC()
	if req.ID == uuid.Nil {
		req.ID = utils.GenerateUUIDv7()
	}
	if req.Status == "" {
		req.Status = entities.SellerRequestPending
	}
	if req.Documents == nil {
		req.Documents = entities.Documents{}
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	return translateError(GetDB(ctx, r.db).Create(toSellerRequestModel(req)).Error)
}

// GetByID gets a seller request by ID
func (r *SellerRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SellerRequest, error) {
	var m models.SellerRequest
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toSellerRequestEntity(&m), nil
}

// GetActiveByUserID gets the user's pending or approved request
func (r *SellerRequestRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerRequest, error) {
	var m models.SellerRequest
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND status IN ?", userID, []string{
			string(entities.SellerRequestPending),
			string(entities.SellerRequestApproved),
		}).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return toSellerRequestEntity(&m), nil
}

// GetLatestByUserID gets the most recent request of any status
func (r *SellerRequestRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerRequest, error) {
	var m models.SellerRequest
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC").First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toSellerRequestEntity(&m), nil
}

// UpdateReview persists status, rejection reason and review stamps
func (r *SellerRequestRepository) UpdateReview(ctx context.Context, req *entities.SellerRequest) error {
	req.UpdatedAt = time.Now().UTC()
	result := GetDB(ctx, r.db).Model(&models.SellerRequest{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"status":           string(req.Status),
		"rejection_reason": req.RejectionReason.Ptr(),
		"reviewed_by":      nullUUIDPtr(req.ReviewedBy),
		"reviewed_at":      req.ReviewedAt.Ptr(),
		"verified_at":      req.VerifiedAt.Ptr(),
		"updated_at":       req.UpdatedAt,
	})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List returns requests filtered by status (empty means all), newest first
func (r *SellerRequestRepository) List(ctx context.Context, status entities.SellerRequestStatus, pagination utils.PaginationParams) ([]*entities.SellerRequest, int64, error) {
	var (
		rows       []models.SellerRequest
		totalCount int64
	)

	query := GetDB(ctx, r.db).Model(&models.SellerRequest{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	pagination = utils.NewPaginationParams(pagination.Page, pagination.Limit)
	query = query.Limit(pagination.Limit).Offset(pagination.Offset())
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entities.SellerRequest, 0, len(rows))
	for i := range rows {
		items = append(items, toSellerRequestEntity(&rows[i]))
	}
	return items, totalCount, nil
}

func toSellerRequestModel(e *entities.SellerRequest) *models.SellerRequest {
	return &models.SellerRequest{
		ID:                e.ID,
		UserID:            e.UserID,
		Type:              string(e.Type),
		Status:            string(e.Status),
		PersonalInfo:      datatypes.NewJSONType(e.PersonalInfo),
		BusinessInfo:      datatypes.NewJSONType(e.BusinessInfo),
		Documents:         datatypes.NewJSONType(e.Documents),
		Compliance:        datatypes.NewJSONType(e.Compliance),
		Contract:          datatypes.NewJSONType(e.Contract),
		VideoVerification: datatypes.NewJSONType(e.VideoVerification),
		RejectionReason:   e.RejectionReason.Ptr(),
		ReviewedBy:        nullUUIDPtr(e.ReviewedBy),
		ReviewedAt:        e.ReviewedAt.Ptr(),
		VerifiedAt:        e.VerifiedAt.Ptr(),
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func toSellerRequestEntity(m *models.SellerRequest) *entities.SellerRequest {
	docs := m.Documents.Data()
	if docs == nil {
		docs = entities.Documents{}
	}
	return &entities.SellerRequest{
		ID:                m.ID,
		UserID:            m.UserID,
		Type:              entities.SellerType(m.Type),
		Status:            entities.SellerRequestStatus(m.Status),
		PersonalInfo:      m.PersonalInfo.Data(),
		BusinessInfo:      m.BusinessInfo.Data(),
		Documents:         docs,
		Compliance:        m.Compliance.Data(),
		Contract:          m.Contract.Data(),
		VideoVerification: m.VideoVerification.Data(),
		RejectionReason:   null.StringFromPtr(m.RejectionReason),
		ReviewedBy:        uuidPtrToNull(m.ReviewedBy),
		ReviewedAt:        null.TimeFromPtr(m.ReviewedAt),
		VerifiedAt:        null.TimeFromPtr(m.VerifiedAt),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func nullUUIDPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}

func uuidPtrToNull(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
