package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/pkg/utils"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	m.Called(ctx)
	return ctx
}

func newMockUoW() *MockUnitOfWork {
	uow := new(MockUnitOfWork)
	uow.On("Do", mock.Anything, mock.Anything)
	uow.On("WithLock", mock.Anything)
	return uow
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entities.UserRole, status entities.UserStatus) error {
	return m.Called(ctx, id, role, status).Error(0)
}

func (m *MockUserRepository) UpdateTrial(ctx context.Context, id uuid.UUID, active bool, endsAt *time.Time, role entities.UserRole) error {
	return m.Called(ctx, id, active, endsAt, role).Error(0)
}

func (m *MockUserRepository) ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*entities.User, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

// Mock SellerRequestRepository
type MockSellerRequestRepository struct {
	mock.Mock
}

func (m *MockSellerRequestRepository) Create(ctx context.Context, req *entities.SellerRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockSellerRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SellerRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SellerRequest), args.Error(1)
}

func (m *MockSellerRequestRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SellerRequest), args.Error(1)
}

func (m *MockSellerRequestRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SellerRequest), args.Error(1)
}

func (m *MockSellerRequestRepository) UpdateReview(ctx context.Context, req *entities.SellerRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockSellerRequestRepository) List(ctx context.Context, status entities.SellerRequestStatus, pagination utils.PaginationParams) ([]*entities.SellerRequest, int64, error) {
	args := m.Called(ctx, status, pagination)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.SellerRequest), args.Get(1).(int64), args.Error(2)
}

// Mock SellerProfileRepository
type MockSellerProfileRepository struct {
	mock.Mock
}

func (m *MockSellerProfileRepository) Create(ctx context.Context, profile *entities.SellerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockSellerProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.SellerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SellerProfile), args.Error(1)
}

func (m *MockSellerProfileRepository) SetSubscriptionActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return m.Called(ctx, userID, active).Error(0)
}

// Mock SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *entities.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (*entities.Subscription, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) SetTransaction(ctx context.Context, id uuid.UUID, transactionID, paymentURL string) error {
	return m.Called(ctx, id, transactionID, paymentURL).Error(0)
}

func (m *MockSubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.SubscriptionStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func (m *MockSubscriptionRepository) ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]*entities.Subscription, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Subscription), args.Error(1)
}

// Mock NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	return m.Called(ctx, n).Error(0)
}

// Mock PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateTransaction(ctx context.Context, input entities.CreateTransactionInput) (*entities.GatewayTransaction, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GatewayTransaction), args.Error(1)
}

func (m *MockPaymentGateway) VerifyTransaction(ctx context.Context, transactionID string) (*entities.GatewayVerification, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GatewayVerification), args.Error(1)
}

// recordingNotifier captures best-effort side effects
type recordingNotifier struct {
	mu            sync.Mutex
	emails        []entities.EmailMessage
	notifications []entities.Notification
	emailResult   bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{emailResult: true}
}

func (r *recordingNotifier) SendEmail(_ context.Context, msg entities.EmailMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, msg)
	return r.emailResult
}

func (r *recordingNotifier) SendNotification(_ context.Context, n entities.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) emailTemplates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.emails))
	for _, e := range r.emails {
		out = append(out, e.Template)
	}
	return out
}

func (r *recordingNotifier) notificationTypes() []entities.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.NotificationType, 0, len(r.notifications))
	for _, n := range r.notifications {
		out = append(out, n.Type)
	}
	return out
}
