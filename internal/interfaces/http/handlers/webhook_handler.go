package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/interfaces/http/response"
	"marketplace.backend/pkg/logger"
)

type paymentCallbackService interface {
	HandlePaymentCallback(ctx context.Context, subscriptionID uuid.UUID, gatewayTransactionID string) (*entities.Subscription, error)
}

// WebhookHandler receives payment gateway callbacks
type WebhookHandler struct {
	callbacks paymentCallbackService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(callbacks paymentCallbackService) *WebhookHandler {
	return &WebhookHandler{callbacks: callbacks}
}

// PaymentCallback settles a subscription. The body is only a hint: the
// transaction status is always re-read from the gateway.
// POST /api/v1/seller/subscription/callback/:subscriptionId
func (h *WebhookHandler) PaymentCallback(c *gin.Context) {
	subscriptionID, ok := pathID(c, "subscriptionId", "subscription")
	if !ok {
		return
	}

	var input entities.PaymentCallbackInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&input); err != nil {
			logger.Warn(c.Request.Context(), "Unreadable payment callback body", zap.Error(err))
		}
	}
	if input.TransactionID == "" {
		input.TransactionID = c.Query("transactionId")
	}

	sub, err := h.callbacks.HandlePaymentCallback(c.Request.Context(), subscriptionID, input.TransactionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"received":       true,
		"subscriptionId": sub.ID,
		"status":         sub.Status,
	})
}
