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

type sellerRequestService interface {
	Submit(ctx context.Context, userID uuid.UUID, input *entities.SellerRequestInput, documentRefs entities.Documents) (*entities.SellerRequest, error)
	GetValidationStatus(ctx context.Context, userID uuid.UUID) (*entities.SellerValidationStatus, error)
}

type capabilityService interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*entities.SellerCapability, error)
}

// SellerHandler handles the seller application endpoints
type SellerHandler struct {
	requests   sellerRequestService
	capability capabilityService
}

func NewSellerHandler(requests sellerRequestService, capability capabilityService) *SellerHandler {
	return &SellerHandler{requests: requests, capability: capability}
}

// Register submits a seller application. Documents are references to files
// that were uploaded beforehand.
// POST /api/v1/seller/register
func (h *SellerHandler) Register(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input entities.SellerRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	req, err := h.requests.Submit(c.Request.Context(), userID, &input, nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, req)
}

// ValidationStatus reports the caller's latest application
// GET /api/v1/seller/validation-status
func (h *SellerHandler) ValidationStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.requests.GetValidationStatus(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// Capability reports whether the caller may sell right now
// GET /api/v1/seller/capability
func (h *SellerHandler) Capability(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	capability, err := h.capability.Resolve(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, capability)
}
