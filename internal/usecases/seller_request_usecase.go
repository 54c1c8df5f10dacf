package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/domain/repositories"
	"marketplace.backend/pkg/logger"
	"marketplace.backend/pkg/utils"
)

// SellerRequestUsecase handles seller onboarding: intake and admin review
type SellerRequestUsecase struct {
	uow         repositories.UnitOfWork
	requestRepo repositories.SellerRequestRepository
	userRepo    repositories.UserRepository
	provisioner *SellerProvisioner
	validator   *SellerValidator
	notifier    NotificationSender
	now         func() time.Time
}

// NewSellerRequestUsecase creates a new seller request usecase
func NewSellerRequestUsecase(
	uow repositories.UnitOfWork,
	requestRepo repositories.SellerRequestRepository,
	userRepo repositories.UserRepository,
	provisioner *SellerProvisioner,
	notifier NotificationSender,
) *SellerRequestUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SellerRequestUsecase{
		uow:         uow,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		provisioner: provisioner,
		validator:   NewSellerValidator(),
		notifier:    notifier,
		now:         utcNow,
	}
}

// Submit validates and stores a new pending seller request. documentRefs are
// references to files already uploaded; they override same-kind entries in
// the payload.
func (u *SellerRequestUsecase) Submit(ctx context.Context, userID uuid.UUID, input *entities.SellerRequestInput, documentRefs entities.Documents) (*entities.SellerRequest, error) {
	if err := u.validator.Validate(input); err != nil {
		return nil, err
	}

	if _, err := u.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}

	docs := make(entities.Documents, len(input.Documents)+len(documentRefs))
	for kind, ref := range input.Documents {
		docs[kind] = ref
	}
	for kind, ref := range documentRefs {
		docs[kind] = ref
	}

	req := &entities.SellerRequest{
		UserID:            userID,
		Type:              input.Type,
		Status:            entities.SellerRequestPending,
		PersonalInfo:      *input.PersonalInfo,
		BusinessInfo:      input.BusinessInfo,
		Documents:         docs,
		Compliance:        *input.Compliance,
		Contract:          input.Contract,
		VideoVerification: input.VideoVerification,
	}

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		existing, err := u.requestRepo.GetActiveByUserID(txCtx, userID)
		if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			return duplicateRequestError(existing.Status)
		}

		if err := u.requestRepo.Create(txCtx, req); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyExists) {
				return domainerrors.DuplicateRequest("you already have an active seller request")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Seller request submitted",
		zap.String("seller_request_id", req.ID.String()),
		zap.String("user_id", userID.String()),
	)

	u.notifier.SendNotification(ctx, entities.Notification{
		UserID:  userID,
		Type:    entities.NotificationSellerRequestSubmitted,
		Title:   "Seller application received",
		Message: "We are reviewing your application and will get back to you shortly.",
		Data:    map[string]interface{}{"sellerRequestId": req.ID.String()},
	})
	u.notifier.SendEmail(ctx, entities.EmailMessage{
		To:       req.PersonalInfo.Email,
		Subject:  "We received your seller application",
		Template: TemplateSellerRequestReceived,
		Context:  map[string]interface{}{"name": req.PersonalInfo.FullName},
	})

	return req, nil
}

// GetValidationStatus reports the state of the user's latest request
func (u *SellerRequestUsecase) GetValidationStatus(ctx context.Context, userID uuid.UUID) (*entities.SellerValidationStatus, error) {
	req, err := u.requestRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return &entities.SellerValidationStatus{CanResubmit: true}, nil
		}
		return nil, err
	}

	return &entities.SellerValidationStatus{
		HasRequest:      true,
		RequestID:       uuid.NullUUID{UUID: req.ID, Valid: true},
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		SubmittedAt:     null.TimeFrom(req.CreatedAt),
		ReviewedAt:      req.ReviewedAt,
		CanResubmit:     req.Status == entities.SellerRequestRejected,
	}, nil
}

// List returns the admin review queue
func (u *SellerRequestUsecase) List(ctx context.Context, status entities.SellerRequestStatus, page, limit int) ([]*entities.SellerRequest, utils.PaginationMeta, error) {
	switch status {
	case "", entities.SellerRequestPending, entities.SellerRequestApproved, entities.SellerRequestRejected:
	default:
		return nil, utils.PaginationMeta{}, domainerrors.Validation("invalid status filter",
			domainerrors.FieldError{Field: "status", Message: "must be one of: pending, approved, rejected"})
	}

	pagination := utils.NewPaginationParams(page, limit)
	items, total, err := u.requestRepo.List(ctx, status, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return items, pagination.Meta(total), nil
}

// Approve moves a pending request to approved and provisions the seller in
// the same transaction. The row lock serialises concurrent reviewers: the
// loser sees the request already approved.
func (u *SellerRequestUsecase) Approve(ctx context.Context, requestID, reviewerID uuid.UUID) (*entities.ApprovalResult, error) {
	var result *entities.ApprovalResult

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		req, err := u.requestRepo.GetByID(u.uow.WithLock(txCtx), requestID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("seller request not found")
			}
			return err
		}

		if !entities.CanTransition(req.Status, entities.SellerRequestApproved) {
			return domainerrors.InvalidTransition(fmt.Sprintf("seller request is already %s", req.Status))
		}
		if !req.Compliance.Complete() {
			return domainerrors.InvalidTransition("seller request has unaccepted compliance terms")
		}

		now := u.now()
		req.ReviewedBy = uuid.NullUUID{UUID: reviewerID, Valid: true}
		req.ReviewedAt = null.TimeFrom(now)
		req.VerifiedAt = null.TimeFrom(now)

		profile, err := u.provisioner.Provision(txCtx, req, now)
		if err != nil {
			return err
		}
		result = &entities.ApprovalResult{Profile: profile, Request: req}
		return nil
	})
	if err != nil {
		if _, ok := domainerrors.As(err); !ok {
			err = domainerrors.Provisioning(err)
		}
		if errors.Is(err, domainerrors.ErrProvisioning) {
			logger.Error(ctx, "Seller provisioning failed",
				zap.String("seller_request_id", requestID.String()),
				zap.String("reviewer_id", reviewerID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	logger.Info(ctx, "Seller request approved",
		zap.String("seller_request_id", requestID.String()),
		zap.String("user_id", result.Request.UserID.String()),
		zap.String("seller_profile_id", result.Profile.ID.String()),
	)
	u.provisioner.AnnounceProvisioned(ctx, result.Request, result.Profile)

	return result, nil
}

// Reject closes a pending request with a mandatory reason. The user's role is
// never touched.
func (u *SellerRequestUsecase) Reject(ctx context.Context, requestID, reviewerID uuid.UUID, reason string) (*entities.SellerRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domainerrors.Validation("rejection reason is required",
			domainerrors.FieldError{Field: "reason", Message: "is required"})
	}

	var req *entities.SellerRequest
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		req, err = u.requestRepo.GetByID(u.uow.WithLock(txCtx), requestID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("seller request not found")
			}
			return err
		}

		if !entities.CanTransition(req.Status, entities.SellerRequestRejected) {
			return domainerrors.InvalidTransition(fmt.Sprintf("seller request is already %s", req.Status))
		}

		req.Status = entities.SellerRequestRejected
		req.RejectionReason = null.StringFrom(reason)
		req.ReviewedBy = uuid.NullUUID{UUID: reviewerID, Valid: true}
		req.ReviewedAt = null.TimeFrom(u.now())
		return u.requestRepo.UpdateReview(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Seller request rejected",
		zap.String("seller_request_id", requestID.String()),
		zap.String("user_id", req.UserID.String()),
	)

	u.notifier.SendNotification(ctx, entities.Notification{
		UserID:  req.UserID,
		Type:    entities.NotificationSellerRejected,
		Title:   "Seller application declined",
		Message: reason,
		Data:    map[string]interface{}{"sellerRequestId": req.ID.String()},
	})
	u.notifier.SendEmail(ctx, entities.EmailMessage{
		To:       req.PersonalInfo.Email,
		Subject:  "Update on your seller application",
		Template: TemplateSellerRejected,
		Context: map[string]interface{}{
			"name":   req.PersonalInfo.FullName,
			"reason": reason,
		},
	})

	return req, nil
}

func duplicateRequestError(status entities.SellerRequestStatus) error {
	if status == entities.SellerRequestApproved {
		return domainerrors.DuplicateRequest("your seller request has already been approved")
	}
	return domainerrors.DuplicateRequest("you already have a pending seller request")
}

// SetClock replaces the time source, for tests and one-shot tooling.
func (u *SellerRequestUsecase) SetClock(now func() time.Time) {
	if now != nil {
		u.now = now
	}
}
