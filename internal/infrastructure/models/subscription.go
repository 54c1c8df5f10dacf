package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Subscription struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID      *uuid.UUID      `gorm:"type:uuid"`
	PlanID        string          `gorm:"type:varchar(100);not null"`
	BillingCycle  string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;index"`
	TransactionID *string         `gorm:"type:varchar(255)"`
	PaymentURL    *string         `gorm:"type:text"`
	ExpiresAt     time.Time       `gorm:"not null;index"`
	ActivatedAt   *time.Time
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
