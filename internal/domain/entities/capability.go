package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// CapabilitySource names what currently grants a seller the right to sell.
type CapabilitySource string

const (
	CapabilityNone         CapabilitySource = "none"
	CapabilityTrial        CapabilitySource = "trial"
	CapabilitySubscription CapabilitySource = "subscription"
)

// SellerCapability is derived, never stored. A user may sell when their
// profile is active and either a trial or a paid subscription is running.
type SellerCapability struct {
	UserID        uuid.UUID        `json:"userId"`
	CanSell       bool             `json:"canSell"`
	Source        CapabilitySource `json:"source"`
	ProfileStatus null.String      `json:"profileStatus,omitempty"`
	ValidUntil    null.Time        `json:"validUntil,omitempty"`
}

// ResolveCapability computes capability from the current records. Any of the
// inputs may be nil. A paid subscription takes precedence over a trial.
func ResolveCapability(user *User, profile *SellerProfile, sub *Subscription, now time.Time) SellerCapability {
	c := SellerCapability{Source: CapabilityNone}
	if user != nil {
		c.UserID = user.ID
	}
	if profile == nil {
		return c
	}
	c.ProfileStatus = null.StringFrom(string(profile.Status))
	if profile.Status != SellerProfileActive {
		return c
	}

	if sub != nil && sub.GrantsCapability(now) {
		c.CanSell = true
		c.Source = CapabilitySubscription
		c.ValidUntil = null.TimeFrom(sub.ExpiresAt)
		return c
	}
	if user != nil && user.IsTrialActive && user.TrialEndsAt.Valid && now.Before(user.TrialEndsAt.Time) {
		c.CanSell = true
		c.Source = CapabilityTrial
		c.ValidUntil = user.TrialEndsAt
	}
	return c
}
