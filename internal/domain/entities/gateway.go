package entities

import "github.com/shopspring/decimal"

// GatewayTransactionStatus is the payment provider's verdict on a transaction
type GatewayTransactionStatus string

const (
	GatewayApproved GatewayTransactionStatus = "approved"
	GatewayPending  GatewayTransactionStatus = "pending"
	GatewayDeclined GatewayTransactionStatus = "declined"
)

// Valid reports whether the status is one the gateway is documented to return.
func (s GatewayTransactionStatus) Valid() bool {
	switch s {
	case GatewayApproved, GatewayPending, GatewayDeclined:
		return true
	}
	return false
}

type CreateTransactionInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerName  string          `json:"customerName"`
	CallbackURL   string          `json:"callbackUrl"`
}

type GatewayTransaction struct {
	ID         string `json:"id"`
	PaymentURL string `json:"paymentUrl"`
}

type GatewayVerification struct {
	ID     string                   `json:"id"`
	Status GatewayTransactionStatus `json:"status"`
}
