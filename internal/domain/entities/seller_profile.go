package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SellerProfileStatus represents a seller's standing
type SellerProfileStatus string

const (
	SellerProfileActive    SellerProfileStatus = "active"
	SellerProfileSuspended SellerProfileStatus = "suspended"
	SellerProfileBanned    SellerProfileStatus = "banned"
)

// VerificationStatus represents whether a seller's identity was checked
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
)

// SellerSettings holds a seller's storefront preferences
type SellerSettings struct {
	Notifications bool   `json:"notifications"`
	Display       string `json:"display"`
	Locale        string `json:"locale"`
	Currency      string `json:"currency"`
}

// DefaultSellerSettings returns the settings applied to a new profile.
func DefaultSellerSettings() SellerSettings {
	return SellerSettings{
		Notifications: true,
		Display:       "grid",
		Locale:        "en",
		Currency:      "USD",
	}
}

// SellerProfile is created once per user, on approval.
type SellerProfile struct {
	ID                 uuid.UUID           `json:"id"`
	UserID             uuid.UUID           `json:"userId"`
	SellerRequestID    uuid.NullUUID       `json:"sellerRequestId,omitempty"`
	BusinessInfo       BusinessInfo        `json:"businessInfo"`
	Documents          Documents           `json:"documents"`
	Status             SellerProfileStatus `json:"status"`
	VerificationStatus VerificationStatus  `json:"verificationStatus"`
	VerifiedAt         null.Time           `json:"verifiedAt,omitempty"`
	Settings           SellerSettings      `json:"settings"`
	SubscriptionActive bool                `json:"subscriptionActive"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}
