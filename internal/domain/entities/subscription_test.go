package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestBillingCycle_ExpiryFor(t *testing.T) {
	created := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, created.Add(30*24*time.Hour), BillingMonthly.ExpiryFor(created))
	assert.Equal(t, created.Add(365*24*time.Hour), BillingAnnual.ExpiryFor(created))
	assert.True(t, BillingMonthly.Valid())
	assert.True(t, BillingAnnual.Valid())
	assert.False(t, BillingCycle("weekly").Valid())
}

func TestCanTransitionSubscription(t *testing.T) {
	assert.True(t, CanTransitionSubscription(SubscriptionPending, SubscriptionActive))
	assert.True(t, CanTransitionSubscription(SubscriptionPending, SubscriptionFailed))
	assert.True(t, CanTransitionSubscription(SubscriptionPending, SubscriptionExpired))
	assert.True(t, CanTransitionSubscription(SubscriptionActive, SubscriptionExpired))
	assert.True(t, CanTransitionSubscription(SubscriptionActive, SubscriptionCancelled))

	assert.False(t, CanTransitionSubscription(SubscriptionActive, SubscriptionActive))
	assert.False(t, CanTransitionSubscription(SubscriptionActive, SubscriptionPending))
	assert.False(t, CanTransitionSubscription(SubscriptionExpired, SubscriptionActive))
	assert.False(t, CanTransitionSubscription(SubscriptionFailed, SubscriptionActive))
}

func TestResolveCapability(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	user := &User{ID: uuid.New(), Role: UserRoleSeller}
	profile := &SellerProfile{UserID: user.ID, Status: SellerProfileActive}

	t.Run("no profile", func(t *testing.T) {
		c := ResolveCapability(user, nil, nil, now)
		assert.False(t, c.CanSell)
		assert.Equal(t, CapabilityNone, c.Source)
	})

	t.Run("profile without grant", func(t *testing.T) {
		c := ResolveCapability(user, profile, nil, now)
		assert.False(t, c.CanSell)
		assert.Equal(t, "active", c.ProfileStatus.String)
	})

	t.Run("trial running", func(t *testing.T) {
		u := *user
		u.IsTrialActive = true
		u.TrialEndsAt = null.TimeFrom(now.Add(time.Hour))
		c := ResolveCapability(&u, profile, nil, now)
		assert.True(t, c.CanSell)
		assert.Equal(t, CapabilityTrial, c.Source)
	})

	t.Run("trial ended", func(t *testing.T) {
		u := *user
		u.IsTrialActive = true
		u.TrialEndsAt = null.TimeFrom(now.Add(-time.Second))
		assert.False(t, ResolveCapability(&u, profile, nil, now).CanSell)
		assert.True(t, u.TrialExpired(now))
	})

	t.Run("subscription wins over trial", func(t *testing.T) {
		u := *user
		u.IsTrialActive = true
		u.TrialEndsAt = null.TimeFrom(now.Add(time.Hour))
		sub := &Subscription{Status: SubscriptionActive, ExpiresAt: now.Add(48 * time.Hour)}
		c := ResolveCapability(&u, profile, sub, now)
		assert.True(t, c.CanSell)
		assert.Equal(t, CapabilitySubscription, c.Source)
		assert.Equal(t, sub.ExpiresAt, c.ValidUntil.Time)
	})

	t.Run("suspended profile", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionActive, ExpiresAt: now.Add(time.Hour)}
		p := &SellerProfile{Status: SellerProfileSuspended}
		assert.False(t, ResolveCapability(user, p, sub, now).CanSell)
	})
}
