package entities

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType names the event a notification describes
type NotificationType string

const (
	NotificationSellerRequestSubmitted NotificationType = "seller_request_submitted"
	NotificationSellerApproved         NotificationType = "seller_approved"
	NotificationSellerRejected         NotificationType = "seller_rejected"
	NotificationTrialStarted           NotificationType = "trial_started"
	NotificationSubscriptionActivated  NotificationType = "subscription_activated"
	NotificationSubscriptionExpired    NotificationType = "subscription_expired"
)

// Notification is an in-app message addressed to a user.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"isRead"`
	CreatedAt time.Time              `json:"createdAt"`
}

// EmailMessage is a templated email handed to the notification sender.
type EmailMessage struct {
	To       string                 `json:"to"`
	Subject  string                 `json:"subject"`
	Template string                 `json:"template"`
	Context  map[string]interface{} `json:"context,omitempty"`
}
