package usecases

import (
	"context"
	"time"

	"marketplace.backend/internal/domain/entities"
)

// PaymentGateway is the payment provider the subscription ledger talks to.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, input entities.CreateTransactionInput) (*entities.GatewayTransaction, error)
	VerifyTransaction(ctx context.Context, transactionID string) (*entities.GatewayVerification, error)
}

// NotificationSender delivers best-effort side effects after commit.
// Implementations must not block the caller and never return errors.
type NotificationSender interface {
	SendEmail(ctx context.Context, msg entities.EmailMessage) bool
	SendNotification(ctx context.Context, n entities.Notification)
}

type nopNotifier struct{}

func (nopNotifier) SendEmail(context.Context, entities.EmailMessage) bool   { return false }
func (nopNotifier) SendNotification(context.Context, entities.Notification) {}

func utcNow() time.Time {
	return time.Now().UTC()
}
