package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/interfaces/http/response"
)

type subscriptionService interface {
	StartTrial(ctx context.Context, userID uuid.UUID) (*entities.TrialWindow, error)
	CheckTrialStatus(ctx context.Context, userID uuid.UUID) (*entities.TrialStatus, error)
	InitiateSubscription(ctx context.Context, userID uuid.UUID, input *entities.InitiateSubscriptionInput) (*entities.InitiateSubscriptionResult, error)
	GetCurrentSubscription(ctx context.Context, userID uuid.UUID) (*entities.Subscription, error)
	CancelSubscription(ctx context.Context, userID, subscriptionID uuid.UUID) (*entities.Subscription, error)
}

// SubscriptionHandler handles trial and paid subscription endpoints
type SubscriptionHandler struct {
	subscriptions subscriptionService
}

func NewSubscriptionHandler(subscriptions subscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// StartTrial starts or restarts the caller's free trial
// POST /api/v1/seller/subscription/trial
func (h *SubscriptionHandler) StartTrial(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	window, err := h.subscriptions.StartTrial(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, window)
}

// TrialStatus reports the trial window, ending it if it lapsed
// GET /api/v1/seller/subscription/trial
func (h *SubscriptionHandler) TrialStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.subscriptions.CheckTrialStatus(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// Initiate opens a gateway transaction for a paid plan
// POST /api/v1/seller/subscription/initiate
func (h *SubscriptionHandler) Initiate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input entities.InitiateSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	result, err := h.subscriptions.InitiateSubscription(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Current returns the caller's latest subscription
// GET /api/v1/seller/subscription
func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sub, err := h.subscriptions.GetCurrentSubscription(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, sub)
}

// Cancel ends one of the caller's subscriptions
// POST /api/v1/seller/subscription/:id/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subscriptionID, ok := pathID(c, "id", "subscription")
	if !ok {
		return
	}

	sub, err := h.subscriptions.CancelSubscription(c.Request.Context(), userID, subscriptionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, sub)
}
