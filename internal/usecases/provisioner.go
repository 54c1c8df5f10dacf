package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/domain/repositories"
	"marketplace.backend/pkg/logger"
)

// SellerProvisioner turns an approved request into a selling account.
// Provision must run inside the caller's unit of work.
type SellerProvisioner struct {
	profileRepo      repositories.SellerProfileRepository
	userRepo         repositories.UserRepository
	requestRepo      repositories.SellerRequestRepository
	notificationRepo repositories.NotificationRepository
	notifier         NotificationSender
}

// NewSellerProvisioner creates a new provisioner
func NewSellerProvisioner(
	profileRepo repositories.SellerProfileRepository,
	userRepo repositories.UserRepository,
	requestRepo repositories.SellerRequestRepository,
	notificationRepo repositories.NotificationRepository,
	notifier NotificationSender,
) *SellerProvisioner {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SellerProvisioner{
		profileRepo:      profileRepo,
		userRepo:         userRepo,
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
	}
}

// Provision creates the profile, promotes the user (admins keep their role), marks the request
// approved and records the in-app notification. Any failure is returned as
// a ProvisioningError and the caller's transaction must roll back.
func (p *SellerProvisioner) Provision(ctx context.Context, req *entities.SellerRequest, now time.Time) (*entities.SellerProfile, error) {
	profile := &entities.SellerProfile{
		UserID:             req.UserID,
		SellerRequestID:    uuid.NullUUID{UUID: req.ID, Valid: true},
		BusinessInfo:       req.BusinessInfo,
		Documents:          copyDocuments(req.Documents),
		Status:             entities.SellerProfileActive,
		VerificationStatus: entities.VerificationVerified,
		VerifiedAt:         null.TimeFrom(now),
		Settings:           entities.DefaultSellerSettings(),
	}
	if err := p.profileRepo.Create(ctx, profile); err != nil {
		return nil, domainerrors.Provisioning(fmt.Errorf("create seller profile: %w", err))
	}

	user, err := p.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, domainerrors.Provisioning(fmt.Errorf("load user: %w", err))
	}
	role := entities.UserRoleSeller
	if user.IsAdmin() {
		role = entities.UserRoleAdmin
	}
	if err := p.userRepo.UpdateRole(ctx, req.UserID, role, entities.UserStatusActive); err != nil {
		return nil, domainerrors.Provisioning(fmt.Errorf("promote user: %w", err))
	}

	req.Status = entities.SellerRequestApproved
	if err := p.requestRepo.UpdateReview(ctx, req); err != nil {
		return nil, domainerrors.Provisioning(fmt.Errorf("mark request approved: %w", err))
	}

	notification := &entities.Notification{
		UserID:  req.UserID,
		Type:    entities.NotificationSellerApproved,
		Title:   "Your seller account is approved",
		Message: "You can now list products on the marketplace.",
		Data: map[string]interface{}{
			"sellerRequestId": req.ID.String(),
			"sellerProfileId": profile.ID.String(),
		},
	}
	if err := p.notificationRepo.Create(ctx, notification); err != nil {
		return nil, domainerrors.Provisioning(fmt.Errorf("write notification: %w", err))
	}

	return profile, nil
}

// AnnounceProvisioned sends the confirmation email. Call it only after commit.
func (p *SellerProvisioner) AnnounceProvisioned(ctx context.Context, req *entities.SellerRequest, profile *entities.SellerProfile) {
	ok := p.notifier.SendEmail(ctx, entities.EmailMessage{
		To:       req.PersonalInfo.Email,
		Subject:  "Welcome to the marketplace, your seller account is active",
		Template: TemplateSellerApproved,
		Context: map[string]interface{}{
			"name":     req.PersonalInfo.FullName,
			"shopName": profile.BusinessInfo.ShopName,
		},
	})
	if !ok {
		logger.Warn(ctx, "Seller approval email not queued",
			zap.String("seller_request_id", req.ID.String()),
			zap.String("user_id", req.UserID.String()),
		)
	}
}

func copyDocuments(in entities.Documents) entities.Documents {
	out := make(entities.Documents, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
