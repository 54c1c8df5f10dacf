package usecases

import "time"

// DefaultTrialDays is the length of a free trial when none is configured.
const DefaultTrialDays = 30

// DefaultExpiryBatchSize bounds how many rows one sweep pass touches.
const DefaultExpiryBatchSize = 100

// Email templates rendered by the notification sender
const (
	TemplateSellerRequestReceived = "seller_request_received"
	TemplateSellerApproved        = "seller_approved"
	TemplateSellerRejected        = "seller_rejected"
	TemplateSubscriptionActivated = "subscription_activated"
	TemplateSubscriptionExpired   = "subscription_expired"
)

// CallbackPathPrefix is where the gateway posts transaction results.
const CallbackPathPrefix = "/api/v1/seller/subscription/callback/"

const trialDay = 24 * time.Hour
