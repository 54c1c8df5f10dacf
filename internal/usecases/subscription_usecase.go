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
)

// SubscriptionConfig holds ledger settings
type SubscriptionConfig struct {
	TrialDays       int
	CallbackBaseURL string
	ExpiryBatchSize int
}

// SubscriptionUsecase is the trial and paid subscription ledger
type SubscriptionUsecase struct {
	uow         repositories.UnitOfWork
	userRepo    repositories.UserRepository
	profileRepo repositories.SellerProfileRepository
	subRepo     repositories.SubscriptionRepository
	gateway     PaymentGateway
	notifier    NotificationSender
	cfg         SubscriptionConfig
	now         func() time.Time
}

// NewSubscriptionUsecase creates a new subscription usecase
func NewSubscriptionUsecase(
	uow repositories.UnitOfWork,
	userRepo repositories.UserRepository,
	profileRepo repositories.SellerProfileRepository,
	subRepo repositories.SubscriptionRepository,
	gateway PaymentGateway,
	notifier NotificationSender,
	cfg SubscriptionConfig,
) *SubscriptionUsecase {
	if cfg.TrialDays <= 0 {
		cfg.TrialDays = DefaultTrialDays
	}
	if cfg.ExpiryBatchSize <= 0 {
		cfg.ExpiryBatchSize = DefaultExpiryBatchSize
	}
	cfg.CallbackBaseURL = strings.TrimRight(cfg.CallbackBaseURL, "/")
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SubscriptionUsecase{
		uow:         uow,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		subRepo:     subRepo,
		gateway:     gateway,
		notifier:    notifier,
		cfg:         cfg,
		now:         utcNow,
	}
}

// StartTrial opens (or resets) the user's free trial window. A user already
// paying for a subscription cannot start a trial.
func (u *SubscriptionUsecase) StartTrial(ctx context.Context, userID uuid.UUID) (*entities.TrialWindow, error) {
	var window *entities.TrialWindow

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		user, err := u.userRepo.GetByID(u.uow.WithLock(txCtx), userID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("user not found")
			}
			return err
		}

		now := u.now()
		hasSub, err := u.hasActiveSubscription(txCtx, userID, now)
		if err != nil {
			return err
		}
		if hasSub {
			return domainerrors.InvalidTransition("an active paid subscription already grants seller access")
		}

		endsAt := now.Add(time.Duration(u.cfg.TrialDays) * trialDay)
		role := entities.UserRoleSeller
		if user.IsAdmin() {
			role = entities.UserRoleAdmin
		}
		if err := u.userRepo.UpdateTrial(txCtx, userID, true, &endsAt, role); err != nil {
			return err
		}

		window = &entities.TrialWindow{IsTrialActive: true, TrialEndsAt: null.TimeFrom(endsAt)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Trial started",
		zap.String("user_id", userID.String()),
		zap.Time("trial_ends_at", window.TrialEndsAt.Time),
	)
	u.notifier.SendNotification(ctx, entities.Notification{
		UserID:  userID,
		Type:    entities.NotificationTrialStarted,
		Title:   "Your free trial has started",
		Message: fmt.Sprintf("Your trial runs until %s.", window.TrialEndsAt.Time.Format("2006-01-02")),
	})

	return window, nil
}

// CheckTrialStatus reports the trial window and ends it if it has run out.
func (u *SubscriptionUsecase) CheckTrialStatus(ctx context.Context, userID uuid.UUID) (*entities.TrialStatus, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}

	now := u.now()
	if !user.TrialExpired(now) {
		return &entities.TrialStatus{
			Active:      user.IsTrialActive && user.TrialEndsAt.Valid,
			TrialEndsAt: user.TrialEndsAt,
		}, nil
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		locked, err := u.userRepo.GetByID(u.uow.WithLock(txCtx), userID)
		if err != nil {
			return err
		}
		if !locked.TrialExpired(now) {
			return nil
		}
		_, err = u.endTrial(txCtx, locked, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &entities.TrialStatus{Active: false, TrialEndsAt: user.TrialEndsAt}, nil
}

// InitiateSubscription creates a pending subscription and the matching
// gateway transaction. If the gateway fails, the row is rolled back.
func (u *SubscriptionUsecase) InitiateSubscription(ctx context.Context, userID uuid.UUID, input *entities.InitiateSubscriptionInput) (*entities.InitiateSubscriptionResult, error) {
	if err := validateInitiate(input); err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}

	var sellerID uuid.NullUUID
	profile, err := u.profileRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if profile != nil {
		sellerID = uuid.NullUUID{UUID: profile.ID, Valid: true}
	}

	var result *entities.InitiateSubscriptionResult
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		now := u.now()
		sub := &entities.Subscription{
			UserID:       userID,
			SellerID:     sellerID,
			PlanID:       strings.TrimSpace(input.PlanID),
			BillingCycle: input.BillingCycle,
			Amount:       input.Amount,
			Status:       entities.SubscriptionPending,
			ExpiresAt:    input.BillingCycle.ExpiryFor(now),
			CreatedAt:    now,
		}
		if err := u.subRepo.Create(txCtx, sub); err != nil {
			return err
		}

		txn, err := u.gateway.CreateTransaction(txCtx, entities.CreateTransactionInput{
			Amount:        sub.Amount,
			Description:   fmt.Sprintf("Seller subscription %s (%s)", sub.PlanID, sub.BillingCycle),
			CustomerEmail: user.Email,
			CustomerName:  user.Name,
			CallbackURL:   u.cfg.CallbackBaseURL + CallbackPathPrefix + sub.ID.String(),
		})
		if err != nil {
			return domainerrors.Gateway(err)
		}
		if txn == nil || txn.ID == "" || txn.PaymentURL == "" {
			return domainerrors.Gateway(errors.New("gateway returned an incomplete transaction"))
		}

		if err := u.subRepo.SetTransaction(txCtx, sub.ID, txn.ID, txn.PaymentURL); err != nil {
			return err
		}
		result = &entities.InitiateSubscriptionResult{SubscriptionID: sub.ID, PaymentURL: txn.PaymentURL}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrGateway) {
			logger.Error(ctx, "Subscription initiation failed at gateway",
				zap.String("user_id", userID.String()),
				zap.String("plan_id", input.PlanID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	logger.Info(ctx, "Subscription initiated",
		zap.String("subscription_id", result.SubscriptionID.String()),
		zap.String("user_id", userID.String()),
	)
	return result, nil
}

// HandlePaymentCallback settles a pending subscription from the gateway's
// verdict. Callbacks are at-least-once: anything but a pending subscription
// is left untouched. An approval that lands after ExpiresAt expires the
// subscription without granting capability.
func (u *SubscriptionUsecase) HandlePaymentCallback(ctx context.Context, subscriptionID uuid.UUID, gatewayTransactionID string) (*entities.Subscription, error) {
	sub, err := u.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("subscription not found")
		}
		return nil, err
	}

	if !sub.TransactionID.Valid || sub.TransactionID.String == "" {
		return nil, domainerrors.InvalidTransition("subscription has no gateway transaction")
	}
	gatewayTransactionID = strings.TrimSpace(gatewayTransactionID)
	if gatewayTransactionID == "" {
		gatewayTransactionID = sub.TransactionID.String
	}
	if gatewayTransactionID != sub.TransactionID.String {
		return nil, domainerrors.Validation("transaction does not belong to this subscription",
			domainerrors.FieldError{Field: "transactionId", Message: "does not match subscription"})
	}

	if sub.Status != entities.SubscriptionPending {
		logger.Info(ctx, "Payment callback ignored, subscription already settled",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("status", string(sub.Status)),
		)
		return sub, nil
	}

	verification, err := u.gateway.VerifyTransaction(ctx, gatewayTransactionID)
	if err != nil {
		logger.Error(ctx, "Gateway verification failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err),
		)
		return nil, domainerrors.Gateway(err)
	}
	if verification == nil || !verification.Status.Valid() {
		return nil, domainerrors.Gateway(fmt.Errorf("unexpected verification response %+v", verification))
	}

	var (
		settled   *entities.Subscription
		activated bool
		lapsed    bool
		user      *entities.User
	)
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		current, err := u.subRepo.GetByID(u.uow.WithLock(txCtx), subscriptionID)
		if err != nil {
			return err
		}
		settled = current
		if current.Status != entities.SubscriptionPending {
			return nil
		}

		now := u.now()
		switch verification.Status {
		case entities.GatewayApproved:
			if !now.Before(current.ExpiresAt) {
				// Paid for a period that is already over.
				if err := u.subRepo.UpdateStatus(txCtx, current.ID, entities.SubscriptionExpired, now); err != nil {
					return err
				}
				lapsed = true
				break
			}
			if err := u.subRepo.UpdateStatus(txCtx, current.ID, entities.SubscriptionActive, now); err != nil {
				return err
			}
			user, err = u.activateSeller(txCtx, current.UserID)
			if err != nil {
				return err
			}
			activated = true
		case entities.GatewayDeclined:
			if err := u.subRepo.UpdateStatus(txCtx, current.ID, entities.SubscriptionFailed, now); err != nil {
				return err
			}
		default:
			return nil
		}

		settled, err = u.subRepo.GetByID(txCtx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if lapsed {
		logger.Warn(ctx, "Payment approved after subscription period ended",
			zap.String("subscription_id", settled.ID.String()),
			zap.String("user_id", settled.UserID.String()),
			zap.Time("expires_at", settled.ExpiresAt),
		)
	}

	logger.Info(ctx, "Payment callback processed",
		zap.String("subscription_id", settled.ID.String()),
		zap.String("gateway_status", string(verification.Status)),
		zap.String("status", string(settled.Status)),
	)

	if activated {
		u.notifier.SendNotification(ctx, entities.Notification{
			UserID:  settled.UserID,
			Type:    entities.NotificationSubscriptionActivated,
			Title:   "Subscription active",
			Message: fmt.Sprintf("Your %s plan is active until %s.", settled.PlanID, settled.ExpiresAt.Format("2006-01-02")),
			Data:    map[string]interface{}{"subscriptionId": settled.ID.String()},
		})
		u.notifier.SendEmail(ctx, entities.EmailMessage{
			To:       user.Email,
			Subject:  "Your seller subscription is active",
			Template: TemplateSubscriptionActivated,
			Context: map[string]interface{}{
				"name":      user.Name,
				"planId":    settled.PlanID,
				"expiresAt": settled.ExpiresAt.Format("2006-01-02"),
			},
		})
	}

	return settled, nil
}

// CancelSubscription stops an active subscription owned by userID
func (u *SubscriptionUsecase) CancelSubscription(ctx context.Context, userID, subscriptionID uuid.UUID) (*entities.Subscription, error) {
	var cancelled *entities.Subscription

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		sub, err := u.subRepo.GetByID(u.uow.WithLock(txCtx), subscriptionID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.NotFound("subscription not found")
			}
			return err
		}
		if sub.UserID != userID {
			return domainerrors.NotFound("subscription not found")
		}
		if !entities.CanTransitionSubscription(sub.Status, entities.SubscriptionCancelled) {
			return domainerrors.InvalidTransition(fmt.Sprintf("subscription is %s", sub.Status))
		}

		now := u.now()
		if err := u.subRepo.UpdateStatus(txCtx, sub.ID, entities.SubscriptionCancelled, now); err != nil {
			return err
		}
		if _, err := u.revokePaidCapability(txCtx, userID, now); err != nil {
			return err
		}

		cancelled, err = u.subRepo.GetByID(txCtx, sub.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Subscription cancelled",
		zap.String("subscription_id", subscriptionID.String()),
		zap.String("user_id", userID.String()),
	)
	return cancelled, nil
}

// GetCurrentSubscription returns the user's most recent subscription
func (u *SubscriptionUsecase) GetCurrentSubscription(ctx context.Context, userID uuid.UUID) (*entities.Subscription, error) {
	sub, err := u.subRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("no subscription found")
		}
		return nil, err
	}
	return sub, nil
}

// ExpireDue expires lapsed subscriptions and ends lapsed trials. Each row is
// settled in its own transaction; failures are collected and the sweep goes on.
func (u *SubscriptionUsecase) ExpireDue(ctx context.Context, now time.Time) (*entities.ExpirySummary, error) {
	summary := &entities.ExpirySummary{}
	var errs []error

	subs, err := u.subRepo.ListDueForExpiry(ctx, now, u.cfg.ExpiryBatchSize)
	if err != nil {
		return summary, fmt.Errorf("list due subscriptions: %w", err)
	}
	for _, sub := range subs {
		var demoted bool
		err := u.uow.Do(ctx, func(txCtx context.Context) error {
			if err := u.subRepo.UpdateStatus(txCtx, sub.ID, entities.SubscriptionExpired, now); err != nil {
				return err
			}
			var err error
			demoted, err = u.revokePaidCapability(txCtx, sub.UserID, now)
			return err
		})
		if errors.Is(err, domainerrors.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("expire subscription %s: %w", sub.ID, err))
			continue
		}

		summary.SubscriptionsExpired++
		if demoted {
			summary.UsersDemoted++
		}
		u.notifier.SendNotification(ctx, entities.Notification{
			UserID:  sub.UserID,
			Type:    entities.NotificationSubscriptionExpired,
			Title:   "Subscription expired",
			Message: fmt.Sprintf("Your %s plan expired. Renew to keep selling.", sub.PlanID),
			Data:    map[string]interface{}{"subscriptionId": sub.ID.String()},
		})
	}

	users, err := u.userRepo.ListExpiredTrials(ctx, now, u.cfg.ExpiryBatchSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("list expired trials: %w", err))
		return summary, errors.Join(errs...)
	}
	for _, user := range users {
		var ended, demoted bool
		err := u.uow.Do(ctx, func(txCtx context.Context) error {
			locked, err := u.userRepo.GetByID(u.uow.WithLock(txCtx), user.ID)
			if err != nil {
				return err
			}
			if !locked.TrialExpired(now) {
				return nil
			}
			ended = true
			demoted, err = u.endTrial(txCtx, locked, now)
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("end trial for %s: %w", user.ID, err))
			continue
		}
		if ended {
			summary.TrialsEnded++
		}
		if demoted {
			summary.UsersDemoted++
		}
	}

	return summary, errors.Join(errs...)
}

// activateSeller grants paid capability: profile flag on, trial ended, seller role.
func (u *SubscriptionUsecase) activateSeller(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	if err := u.profileRepo.SetSubscriptionActive(ctx, userID, true); err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	role := entities.UserRoleSeller
	if user.IsAdmin() {
		role = entities.UserRoleAdmin
	}
	if err := u.userRepo.UpdateTrial(ctx, userID, false, user.TrialEndsAt.Ptr(), role); err != nil {
		return nil, err
	}
	user.Role = role
	user.IsTrialActive = false
	return user, nil
}

// revokePaidCapability runs after a subscription leaves active. The role drops
// to user unless another grant is still running. It reports whether the user
// was demoted.
func (u *SubscriptionUsecase) revokePaidCapability(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	stillPaid, err := u.hasActiveSubscription(ctx, userID, now)
	if err != nil {
		return false, err
	}
	if stillPaid {
		return false, nil
	}

	if err := u.profileRepo.SetSubscriptionActive(ctx, userID, false); err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return false, err
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	trialRunning := user.IsTrialActive && user.TrialEndsAt.Valid && now.Before(user.TrialEndsAt.Time)
	if user.IsAdmin() || trialRunning || user.Role != entities.UserRoleSeller {
		return false, nil
	}
	if err := u.userRepo.UpdateRole(ctx, userID, entities.UserRoleUser, user.Status); err != nil {
		return false, err
	}
	return true, nil
}

// endTrial clears the trial flag and demotes the user unless a paid
// subscription or the admin role keeps them where they are.
func (u *SubscriptionUsecase) endTrial(ctx context.Context, user *entities.User, now time.Time) (bool, error) {
	role := entities.UserRoleUser
	switch {
	case user.IsAdmin():
		role = entities.UserRoleAdmin
	default:
		paid, err := u.hasActiveSubscription(ctx, user.ID, now)
		if err != nil {
			return false, err
		}
		if paid {
			role = entities.UserRoleSeller
		}
	}

	if err := u.userRepo.UpdateTrial(ctx, user.ID, false, user.TrialEndsAt.Ptr(), role); err != nil {
		return false, err
	}
	demoted := user.Role == entities.UserRoleSeller && role == entities.UserRoleUser
	if demoted {
		logger.Info(ctx, "Trial ended, seller role revoked", zap.String("user_id", user.ID.String()))
	}
	return demoted, nil
}

func (u *SubscriptionUsecase) hasActiveSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	_, err := u.subRepo.GetActiveByUserID(ctx, userID, now)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domainerrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func validateInitiate(input *entities.InitiateSubscriptionInput) error {
	if input == nil {
		return domainerrors.Validation("subscription payload is required",
			domainerrors.FieldError{Field: "body", Message: "is required"})
	}
	var fields []domainerrors.FieldError
	if strings.TrimSpace(input.PlanID) == "" {
		fields = append(fields, domainerrors.FieldError{Field: "planId", Message: "is required"})
	}
	if !input.BillingCycle.Valid() {
		fields = append(fields, domainerrors.FieldError{Field: "billingCycle", Message: "must be one of: monthly, annual"})
	}
	if !input.Amount.IsPositive() {
		fields = append(fields, domainerrors.FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if len(fields) > 0 {
		return domainerrors.Validation("invalid subscription request", fields...)
	}
	return nil
}

// SetClock replaces the time source, for tests and one-shot tooling.
func (u *SubscriptionUsecase) SetClock(now func() time.Time) {
	if now != nil {
		u.now = now
	}
}
