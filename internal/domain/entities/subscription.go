package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// BillingCycle represents how often a subscription is billed
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingAnnual  BillingCycle = "annual"
)

// Valid reports whether the cycle is known.
func (c BillingCycle) Valid() bool {
	return c == BillingMonthly || c == BillingAnnual
}

// Period returns the length of one billing period.
func (c BillingCycle) Period() time.Duration {
	if c == BillingAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// ExpiryFor returns the expiry of a subscription created at createdAt.
func (c BillingCycle) ExpiryFor(createdAt time.Time) time.Time {
	return createdAt.Add(c.Period())
}

// SubscriptionStatus represents the lifecycle of a paid subscription
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionFailed    SubscriptionStatus = "failed"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionPending: {SubscriptionActive, SubscriptionFailed, SubscriptionExpired},
	SubscriptionActive:  {SubscriptionCancelled, SubscriptionExpired},
}

// CanTransitionSubscription reports whether status may move forward from one value to another.
func CanTransitionSubscription(from, to SubscriptionStatus) bool {
	for _, next := range subscriptionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Subscription is a paid, time-boxed grant of seller capability.
type Subscription struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"userId"`
	SellerID      uuid.NullUUID      `json:"sellerId,omitempty"`
	PlanID        string             `json:"planId"`
	BillingCycle  BillingCycle       `json:"billingCycle"`
	Amount        decimal.Decimal    `json:"amount"`
	Status        SubscriptionStatus `json:"status"`
	TransactionID null.String        `json:"transactionId,omitempty"`
	PaymentURL    null.String        `json:"paymentUrl,omitempty"`
	ExpiresAt     time.Time          `json:"expiresAt"`
	ActivatedAt   null.Time          `json:"activatedAt,omitempty"`
	CancelledAt   null.Time          `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// GrantsCapability reports whether the subscription currently allows selling.
func (s *Subscription) GrantsCapability(now time.Time) bool {
	return s.Status == SubscriptionActive && now.Before(s.ExpiresAt)
}

// InitiateSubscriptionInput represents input for starting a paid subscription
type InitiateSubscriptionInput struct {
	PlanID       string          `json:"planId" binding:"required"`
	BillingCycle BillingCycle    `json:"billingCycle" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

// InitiateSubscriptionResult tells the client where to pay.
type InitiateSubscriptionResult struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	PaymentURL     string    `json:"paymentUrl"`
}

// PaymentCallbackInput is the payload posted by the gateway.
type PaymentCallbackInput struct {
	TransactionID string `json:"transactionId" form:"transactionId"`
}

// TrialWindow is the free trial state of a user.
type TrialWindow struct {
	IsTrialActive bool      `json:"isTrialActive"`
	TrialEndsAt   null.Time `json:"trialEndsAt,omitempty"`
}

// TrialStatus is returned by a trial status check.
type TrialStatus struct {
	Active      bool      `json:"active"`
	TrialEndsAt null.Time `json:"trialEndsAt,omitempty"`
}

// ExpirySummary counts what one expiry sweep changed.
type ExpirySummary struct {
	SubscriptionsExpired int `json:"subscriptionsExpired"`
	TrialsEnded          int `json:"trialsEnded"`
	UsersDemoted         int `json:"usersDemoted"`
}
