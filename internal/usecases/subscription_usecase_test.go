package usecases_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/usecases"
)

type subscriptionFixture struct {
	uow         *MockUnitOfWork
	userRepo    *MockUserRepository
	profileRepo *MockSellerProfileRepository
	subRepo     *MockSubscriptionRepository
	gateway     *MockPaymentGateway
	notifier    *recordingNotifier
	uc          *usecases.SubscriptionUsecase
	now         time.Time
}

func newSubscriptionFixture() *subscriptionFixture {
	f := &subscriptionFixture{
		uow:         newMockUoW(),
		userRepo:    new(MockUserRepository),
		profileRepo: new(MockSellerProfileRepository),
		subRepo:     new(MockSubscriptionRepository),
		gateway:     new(MockPaymentGateway),
		notifier:    newRecordingNotifier(),
		now:         time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	f.uc = usecases.NewSubscriptionUsecase(f.uow, f.userRepo, f.profileRepo, f.subRepo, f.gateway, f.notifier,
		usecases.SubscriptionConfig{TrialDays: 30, CallbackBaseURL: "https://api.example.com/"})
	f.uc.SetClock(func() time.Time { return f.now })
	return f
}

func pendingSubscription(userID uuid.UUID) *entities.Subscription {
	return &entities.Subscription{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        "pro",
		BillingCycle:  entities.BillingMonthly,
		Amount:        decimal.RequireFromString("19.90"),
		Status:        entities.SubscriptionPending,
		TransactionID: null.StringFrom("txn_123"),
		PaymentURL:    null.StringFrom("https://pay.example.com/txn_123"),
		ExpiresAt:     time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestSubscriptionUsecase_StartTrial(t *testing.T) {
	f := newSubscriptionFixture()
	userID := uuid.New()
	wantEnd := f.now.Add(30 * 24 * time.Hour)

	f.userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{ID: userID, Role: entities.UserRoleUser}, nil)
	f.subRepo.On("GetActiveByUserID", mock.Anything, userID, f.now).Return(nil, domainerrors.ErrNotFound)
	f.userRepo.On("UpdateTrial", mock.Anything, userID, true, mock.MatchedBy(func(end *time.Time) bool {
		return end != nil && end.Equal(wantEnd)
	}), entities.UserRoleSeller).Return(nil)

	window, err := f.uc.StartTrial(context.Background(), userID)

	require.NoError(t, err)
	assert.True(t, window.IsTrialActive)
	assert.True(t, window.TrialEndsAt.Time.Equal(wantEnd))
	assert.Equal(t, []entities.NotificationType{entities.NotificationTrialStarted}, f.notifier.notificationTypes())
	f.userRepo.AssertExpectations(t)
}

func TestSubscriptionUsecase_StartTrial_AdminKeepsRole(t *testing.T) {
	f := newSubscriptionFixture()
	userID := uuid.New()

	f.userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{ID: userID, Role: entities.UserRoleAdmin}, nil)
	f.subRepo.On("GetActiveByUserID", mock.Anything, userID, f.now).Return(nil, domainerrors.ErrNotFound)
	f.userRepo.On("UpdateTrial", mock.Anything, userID, true, mock.Anything, entities.UserRoleAdmin).Return(nil)

	_, err := f.uc.StartTrial(context.Background(), userID)

	require.NoError(t, err)
	f.userRepo.AssertExpectations(t)
}

func TestSubscriptionUsecase_StartTrial_RefusedWhilePaid(t *testing.T) {
	f := newSubscriptionFixture()
	userID := uuid.New()
	active := pendingSubscription(userID)
	active.Status = entities.SubscriptionActive

	f.userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{ID: userID, Role: entities.UserRoleSeller}, nil)
	f.subRepo.On("GetActiveByUserID", mock.Anything, userID, f.now).Return(active, nil)

	_, err := f.uc.StartTrial(context.Background(), userID)

	requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeInvalidTransition)
	f.userRepo.AssertNotCalled(t, "UpdateTrial", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionUsecase_CheckTrialStatus(t *testing.T) {
	userID := uuid.New()
	trialEnd := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	trialUser := func() *entities.User {
		return &entities.User{
			ID:            userID,
			Role:          entities.UserRoleSeller,
			IsTrialActive: true,
			TrialEndsAt:   null.TimeFrom(trialEnd),
		}
	}

	t.Run("still running", func(t *testing.T) {
		f := newSubscriptionFixture()
		f.userRepo.On("GetByID", mock.Anything, userID).Return(trialUser(), nil)

		status, err := f.uc.CheckTrialStatus(context.Background(), userID)

		require.NoError(t, err)
		assert.True(t, status.Active)
		f.uow.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	})

	t.Run("lapsed trial demotes", func(t *testing.T) {
		f := newSubscriptionFixture()
		f.now = trialEnd.Add(time.Second)
		f.userRepo.On("GetByID", mock.Anything, userID).Return(trialUser(), nil)
		f.subRepo.On("GetActiveByUserID", mock.Anything, userID, f.now).Return(nil, domainerrors.ErrNotFound)
		f.userRepo.On("UpdateTrial", mock.Anything, userID, false, mock.Anything, entities.UserRoleUser).Return(nil)

		status, err := f.uc.CheckTrialStatus(context.Background(), userID)

		require.NoError(t, err)
		assert.False(t, status.Active)
		assert.True(t, status.TrialEndsAt.Time.Equal(trialEnd))
		f.userRepo.AssertExpectations(t)
	})

	t.Run("lapsed trial keeps paid seller", func(t *testing.T) {
		f := newSubscriptionFixture()
		f.now = trialEnd.Add(time.Hour)
		paid := pendingSubscription(userID)
		paid.Status = entities.SubscriptionActive
		f.userRepo.On("GetByID", mock.Anything, userID).Return(trialUser(), nil)
		f.subRepo.On("GetActiveByUserID", mock.Anything, userID, f.now).Return(paid, nil)
		f.userRepo.On("UpdateTrial", mock.Anything, userID, false, mock.Anything, entities.UserRoleSeller).Return(nil)

		status, err := f.uc.CheckTrialStatus(context.Background(), userID)

		require.NoError(t, err)
		assert.False(t, status.Active)
		f.userRepo.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newSubscriptionFixture()
		f.userRepo.On("GetByID", mock.Anything, userID).Return(nil, domainerrors.ErrNotFound)

		_, err := f.uc.CheckTrialStatus(context.Background(), userID)

		requireAppError(t, err, http.StatusNotFound, domainerrors.CodeNotFound)
	})
}

func TestSubscriptionUsecase_InitiateSubscription_Expiry(t *testing.T) {
	tests := []struct {
		cycle entities.BillingCycle
		days  int
	}{
		{entities.BillingMonthly, 30},
		{entities.BillingAnnual, 365},
	}

	for _, tc := range tests {
		t.Run(string(tc.cycle), func(t *testing.T) {
			f := newSubscriptionFixture()
			userID := uuid.New()
			profileID := uuid.New()
			var created *entities.Subscription

			f.userRepo.On("GetByID", mock.Anything, userID).
				Return(&entities.User{ID: userID, Email: "ana@example.com", Name: "Ana"}, nil)
			f.profileRepo.On("GetByUserID", mock.Anything, userID).
				Return(&entities.SellerProfile{ID: profileID, UserID: userID}, nil)
			f.subRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				created = args.Get(1).(*entities.Subscription)
				created.ID = uuid.New()
			}).Return(nil)
			f.gateway.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(in entities.CreateTransactionInput) bool {
				return in.CustomerEmail == "ana@example.com" &&
					in.Amount.Equal(decimal.RequireFromString("99.00")) &&
					strings.HasPrefix(in.CallbackURL, "https://api.example.com"+usecases.CallbackPathPrefix)
			})).Return(&entities.GatewayTransaction{ID: "txn_1", PaymentURL: "https://pay.example.com/txn_1"}, nil)
			f.subRepo.On("SetTransaction", mock.Anything, mock.Anything, "txn_1", "https://pay.example.com/txn_1").Return(nil)

			result, err := f.uc.InitiateSubscription(context.Background(), userID, &entities.InitiateSubscriptionInput{
				PlanID:       "pro",
				BillingCycle: tc.cycle,
				Amount:       decimal.RequireFromString("99.00"),
			})

			require.NoError(t, err)
			require.NotNil(t, created)
			assert.Equal(t, created.ID, result.SubscriptionID)
			assert.Equal(t, "https://pay.example.com/txn_1", result.PaymentURL)
			assert.Equal(t, entities.SubscriptionPending, created.Status)
			assert.Equal(t, profileID, created.SellerID.UUID)
			assert.True(t, created.ExpiresAt.Equal(f.now.AddDate(0, 0, tc.days)))
			f.gateway.AssertExpectations(t)
			f.subRepo.AssertExpectations(t)
		})
	}
}

func TestSubscriptionUsecase_InitiateSubscription_Validation(t *testing.T) {
	f := newSubscriptionFixture()

	_, err := f.uc.InitiateSubscription(context.Background(), uuid.New(), &entities.InitiateSubscriptionInput{
		PlanID:       " ",
		BillingCycle: "weekly",
		Amount:       decimal.Zero,
	})

	appErr := requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeValidation)
	fields := make([]string, 0, len(appErr.Details))
	for _, d := range appErr.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"planId", "billingCycle", "amount"}, fields)
	f.subRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubscriptionUsecase_InitiateSubscription_GatewayFailure(t *testing.T) {
	tests := []struct {
		name string
		txn  *entities.GatewayTransaction
		err  error
	}{
		{"error", nil, errors.New("dial tcp: connection refused")},
		{"incomplete", &entities.GatewayTransaction{ID: "txn_1"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSubscriptionFixture()
			userID := uuid.New()
			f.userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{ID: userID}, nil)
			f.profileRepo.On("GetByUserID", mock.Anything, userID).Return(nil, domainerrors.ErrNotFound)
			f.subRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			if tc.txn != nil {
				f.gateway.On("CreateTransaction", mock.Anything, mock.Anything).Return(tc.txn, nil)
			} else {
				f.gateway.On("CreateTransaction", mock.Anything, mock.Anything).Return(nil, tc.err)
			}

			_, err := f.uc.InitiateSubscription(context.Background(), userID, &entities.InitiateSubscriptionInput{
				PlanID:       "pro",
				BillingCycle: entities.BillingMonthly,
				Amount:       decimal.NewFromInt(10),
			})

			requireAppError(t, err, http.StatusBadGateway, domainerrors.CodeGateway)
			assert.ErrorIs(t, err, domainerrors.ErrGateway)
			f.subRepo.AssertNotCalled(t, "SetTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubscriptionUsecase_HandlePaymentCallback_Approved(t *testing.T) {
	f := newSubscriptionFixture()
	userID := uuid.New()
	pending := pendingSubscription(userID)
	active := *pending
	active.Status = entities.SubscriptionActive
	active.ActivatedAt = null.TimeFrom(f.now)

	f.subRepo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil).Twice()
	f.subRepo.On("GetByID", mock.Anything, pending.ID).Return(&active, nil)
	f.gateway.On("VerifyTransaction", mock.Anything, "txn_123").
		Return(&entities.GatewayVerification{ID: "txn_123", Status: entities.GatewayApproved}, nil).Once()
	f.subRepo.On("UpdateStatus", mock.Anything, pending.ID, entities.SubscriptionActive, f.now).Return(nil).Once()
	f.profileRepo.On("SetSubscriptionActive", mock.Anything, userID, true).Return(nil).Once()
	f.userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{
		ID:            userID,
		Email:         "ana@example.com",
		Role:          entities.UserRoleUser,
		IsTrialActive: true,
		TrialEndsAt:   null.TimeFrom(f.now.Add(48 * time.Hour)),
	}, nil)
	f.userRepo.On("UpdateTrial", mock.Anything, userID, false, mock.Anything, entities.UserRoleSeller).Return(nil).Once()

	got, err := f.uc.HandlePaymentCallback(context.Background(), pending.ID, "txn_123")
	require.NoError(t, err)
	assert.Equal(t, entities.SubscriptionActive, got.Status)

	// A redelivered callback finds the subscription settled and changes nothing.
	again, err := f.uc.HandlePaymentCallback(context.Background(), pending.ID, "txn_123")
	require.NoError(t, err)
	assert.Equal(t, entities.SubscriptionActive, again.Status)

	f.gateway.AssertNumberOfCalls(t, "VerifyTransaction", 1)
	f.subRepo.AssertNumberOfCalls(t, "UpdateStatus", 1)
	assert.Equal(t, []entities.NotificationType{entities.NotificationSubscriptionActivated}, f.notifier.notificationTypes())
	assert.Equal(t, []string{usecases.TemplateSubscriptionActivated}, f.notifier.emailTemplates())
}

func TestSubscriptionUsecase_HandlePaymentCallback_ApprovedAfterExpiry(t *testing.T) {
	f := newSubscriptionFixture()
	userID := uuid.New()
	pending := pendingSubscription(userID)
	f.now = pending.ExpiresAt.Add(time.Hour)
	expired := *pending
	expired.Status = entities.SubscriptionExpired

	f.subRepo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil).Twice()
	f.subRepo.On("GetByID", mock.Anything, pending.ID).Return(&expired, nil)
	f.gateway.On("VerifyTransaction", mock.Anything, "txn_123").
		Return(&entities.GatewayVerification{ID: "txn_123", Status: entities.GatewayApproved}, nil).Once()
	f.subRepo.On("UpdateStatus", mock.Anything, pending.ID, entities.SubscriptionExpired, f.now).Return(nil).Once()

	got, err := f.uc.HandlePaymentCallback(context.Background(), pending.ID, "txn_123")

	require.NoError(t, err)
	assert.Equal(t, entities.SubscriptionExpired, got.Status)
	f.subRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, pending.ID, entities.SubscriptionActive, mock.Anything)
	f.profileRepo.AssertNotCalled(t, "SetSubscriptionActive", mock.Anything, mock.Anything, mock.Anything)
	f.userRepo.AssertNotCalled(t, "UpdateTrial", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.notificationTypes())
	assert.Empty(t, f.notifier.emailTemplates())
}

func TestSubscriptionUsecase_HandlePaymentCallback_Declined(t *testing.T) {
	f := newSubscriptionFixture()
	pending := pendingSubscription(uuid.New())
	failed := *pending
	failed.Status = entities.SubscriptionFailed

	f.subRepo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil).Twice()
	f.subRepo.On("GetByID", mock.Anything, pending.ID).Return(&failed, nil)
	f.gateway.On("VerifyTransaction", mock.Anything, "txn_123").
		Return(&entities.GatewayVerification{ID: "txn_123", Status: entities.GatewayDeclined}, nil)
	f.subRepo.On("UpdateStatus", mock.Anything, pending.ID, entities.SubscriptionFailed, f.now).Return(nil)

	got, err := f.uc.HandlePaymentCallback(context.Background(), pending.ID, "")

	require.NoError(t, err)
	assert.Equal(t, entities.SubscriptionFailed, got.Status)
	f.profileRepo.AssertNotCalled(t, "SetSubscriptionActive", mock.Anything, mock.Anything, mock.Anything)
	f.userRepo.AssertNotCalled(t, "UpdateTrial", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.notificationTypes())
}

func TestSubscriptionUsecase_HandlePaymentCallback_StillPending(t *testing.T) {
	f := newSubscriptionFixture()
	pending := pendingSubscription(uuid.New())

	f.subRepo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	f.gateway.On("VerifyTransaction", mock.Anything, "txn_123").
		Return(&entities.GatewayVerification{ID: "txn_123", Status: entities.GatewayPending}, nil)

	got, err := f.uc.HandlePaymentCallback(context.Background(), pending.ID, "txn_123")

	require.NoError(t, err)
	assert.Equal(t, entities.SubscriptionPending, got.Status)
	f.subRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionUsecase_HandlePaymentCallback_Rejections(t *testing.T) {
	t.Run("unknown subscription", func(t *testing.T) {
		f := newSubscriptionFixture()
		id := uuid.New()
		f.subRepo.On("GetByID", mock.Anything, id).Return(nil, domainerrors.ErrNotFound)

		_, err := f.uc.HandlePaymentCallback(context.Background(), id, "txn_123")
		requireAppError(t, err, http.StatusNotFound, domainerrors.CodeNotFound)
	})

	t.Run("foreign transaction", func(t *testing.T) {
		f := newSubscriptionFixture()
		sub := pendingSubscription(uuid.New())
		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		_, err := f.uc.HandlePaymentCallback(context.Background(), sub.ID, "txn_other")
		requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeValidation)
		f.gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
	})

	t.Run("no transaction stored", func(t *testing.T) {
		f := newSubscriptionFixture()
		sub := pendingSubscription(uuid.New())
		sub.TransactionID = null.String{}
		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		_, err := f.uc.HandlePaymentCallback(context.Background(), sub.ID, "txn_123")
		requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeInvalidTransition)
	})

	t.Run("gateway unreachable", func(t *testing.T) {
		f := newSubscriptionFixture()
		sub := pendingSubscription(uuid.New())
		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		f.gateway.On("VerifyTransaction", mock.Anything, "txn_123").Return(nil, errors.New("timeout"))

		_, err := f.uc.HandlePaymentCallback(context.Background(), sub.ID, "txn_123")
		requireAppError(t, err, http.StatusBadGateway, domainerrors.CodeGateway)
		f.uow.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	})
}

func TestSubscriptionUsecase_CancelSubscription(t *testing.T) {
	t.Run("demotes when nothing else grants access", func(t *testing.T) {
		f := newSubscriptionFixture()
		userID := uuid.New()
		sub := pendingSubscription(userID)
		sub.Status = entities.SubscriptionActive
		cancelled := *sub
		cancelled.Status = entities.SubscriptionCancelled

		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil).Once()
		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(&cancelled, nil).Once()
		f.subRepo.On("UpdateStatus", mock.Anything, sub.ID, entities.SubscriptionCancelled, f.now).Return(nil)
		f.subRepo.On("GetActiveByUserID", mock.Anything, userID, f.now).Return(nil, domainerrors.ErrNotFound)
		f.profileRepo.On("SetSubscriptionActive", mock.Anything, userID, false).Return(nil)
		f.userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{
			ID: userID, Role: entities.UserRoleSeller, Status: entities.UserStatusActive,
		}, nil)
		f.userRepo.On("UpdateRole", mock.Anything, userID, entities.UserRoleUser, entities.UserStatusActive).Return(nil)

		got, err := f.uc.CancelSubscription(context.Background(), userID, sub.ID)

		require.NoError(t, err)
		assert.Equal(t, entities.SubscriptionCancelled, got.Status)
		f.userRepo.AssertExpectations(t)
	})

	t.Run("running trial keeps role", func(t *testing.T) {
		f := newSubscriptionFixture()
		userID := uuid.New()
		sub := pendingSubscription(userID)
		sub.Status = entities.SubscriptionActive

		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		f.subRepo.On("UpdateStatus", mock.Anything, sub.ID, entities.SubscriptionCancelled, f.now).Return(nil)
		f.subRepo.On("GetActiveByUserID", mock.Anything, userID, f.now).Return(nil, domainerrors.ErrNotFound)
		f.profileRepo.On("SetSubscriptionActive", mock.Anything, userID, false).Return(nil)
		f.userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{
			ID:            userID,
			Role:          entities.UserRoleSeller,
			IsTrialActive: true,
			TrialEndsAt:   null.TimeFrom(f.now.Add(time.Hour)),
		}, nil)

		_, err := f.uc.CancelSubscription(context.Background(), userID, sub.ID)

		require.NoError(t, err)
		f.userRepo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("other user's subscription", func(t *testing.T) {
		f := newSubscriptionFixture()
		sub := pendingSubscription(uuid.New())
		sub.Status = entities.SubscriptionActive
		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		_, err := f.uc.CancelSubscription(context.Background(), uuid.New(), sub.ID)
		requireAppError(t, err, http.StatusNotFound, domainerrors.CodeNotFound)
	})

	t.Run("pending cannot be cancelled", func(t *testing.T) {
		f := newSubscriptionFixture()
		sub := pendingSubscription(uuid.New())
		f.subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		_, err := f.uc.CancelSubscription(context.Background(), sub.UserID, sub.ID)
		requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeInvalidTransition)
	})
}

func TestSubscriptionUsecase_GetCurrentSubscription(t *testing.T) {
	f := newSubscriptionFixture()
	userID := uuid.New()
	f.subRepo.On("GetLatestByUserID", mock.Anything, userID).Return(nil, domainerrors.ErrNotFound)

	_, err := f.uc.GetCurrentSubscription(context.Background(), userID)

	requireAppError(t, err, http.StatusNotFound, domainerrors.CodeNotFound)
}

func TestSubscriptionUsecase_ExpireDue(t *testing.T) {
	f := newSubscriptionFixture()
	lapsedUser := uuid.New()
	racedUser := uuid.New()
	trialUserID := uuid.New()

	lapsed := pendingSubscription(lapsedUser)
	lapsed.Status = entities.SubscriptionActive
	raced := pendingSubscription(racedUser)
	raced.Status = entities.SubscriptionActive
	trialUser := &entities.User{
		ID:            trialUserID,
		Role:          entities.UserRoleSeller,
		IsTrialActive: true,
		TrialEndsAt:   null.TimeFrom(f.now.Add(-time.Minute)),
	}

	f.subRepo.On("ListDueForExpiry", mock.Anything, f.now, usecases.DefaultExpiryBatchSize).
		Return([]*entities.Subscription{lapsed, raced}, nil)
	f.subRepo.On("UpdateStatus", mock.Anything, lapsed.ID, entities.SubscriptionExpired, f.now).Return(nil)
	f.subRepo.On("UpdateStatus", mock.Anything, raced.ID, entities.SubscriptionExpired, f.now).
		Return(domainerrors.ErrInvalidTransition)
	f.subRepo.On("GetActiveByUserID", mock.Anything, mock.Anything, f.now).Return(nil, domainerrors.ErrNotFound)
	f.profileRepo.On("SetSubscriptionActive", mock.Anything, lapsedUser, false).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, lapsedUser).Return(&entities.User{
		ID: lapsedUser, Role: entities.UserRoleSeller, Status: entities.UserStatusActive,
	}, nil)
	f.userRepo.On("UpdateRole", mock.Anything, lapsedUser, entities.UserRoleUser, entities.UserStatusActive).Return(nil)

	f.userRepo.On("ListExpiredTrials", mock.Anything, f.now, usecases.DefaultExpiryBatchSize).
		Return([]*entities.User{trialUser}, nil)
	f.userRepo.On("GetByID", mock.Anything, trialUserID).Return(trialUser, nil)
	f.userRepo.On("UpdateTrial", mock.Anything, trialUserID, false, mock.Anything, entities.UserRoleUser).Return(nil)

	summary, err := f.uc.ExpireDue(context.Background(), f.now)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.SubscriptionsExpired)
	assert.Equal(t, 1, summary.TrialsEnded)
	assert.Equal(t, 2, summary.UsersDemoted)
	assert.Equal(t, []entities.NotificationType{entities.NotificationSubscriptionExpired}, f.notifier.notificationTypes())
	f.userRepo.AssertExpectations(t)
}

func TestSubscriptionUsecase_ExpireDue_CollectsErrors(t *testing.T) {
	f := newSubscriptionFixture()
	sub := pendingSubscription(uuid.New())
	sub.Status = entities.SubscriptionActive

	f.subRepo.On("ListDueForExpiry", mock.Anything, f.now, mock.Anything).Return([]*entities.Subscription{sub}, nil)
	f.subRepo.On("UpdateStatus", mock.Anything, sub.ID, entities.SubscriptionExpired, f.now).Return(errors.New("deadlock detected"))
	f.userRepo.On("ListExpiredTrials", mock.Anything, f.now, mock.Anything).Return([]*entities.User{}, nil)

	summary, err := f.uc.ExpireDue(context.Background(), f.now)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.Equal(t, 0, summary.SubscriptionsExpired)
	f.userRepo.AssertCalled(t, "ListExpiredTrials", mock.Anything, f.now, mock.Anything)
}
