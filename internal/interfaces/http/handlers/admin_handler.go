package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/interfaces/http/response"
	"marketplace.backend/pkg/utils"
)

type sellerReviewService interface {
	List(ctx context.Context, status entities.SellerRequestStatus, page, limit int) ([]*entities.SellerRequest, utils.PaginationMeta, error)
	Approve(ctx context.Context, requestID, reviewerID uuid.UUID) (*entities.ApprovalResult, error)
	Reject(ctx context.Context, requestID, reviewerID uuid.UUID, reason string) (*entities.SellerRequest, error)
}

// AdminHandler handles the seller review queue
type AdminHandler struct {
	reviews sellerReviewService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reviews sellerReviewService) *AdminHandler {
	return &AdminHandler{reviews: reviews}
}

// ListSellerRequests lists applications, optionally filtered by status
// GET /api/v1/admin/seller-requests?status=pending&page=1&limit=20
func (h *AdminHandler) ListSellerRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := entities.SellerRequestStatus(c.Query("status"))

	items, meta, err := h.reviews.List(c.Request.Context(), status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, items, meta)
}

// ApproveSellerRequest approves an application and provisions the seller
// POST /api/v1/admin/seller-requests/:id/approve
func (h *AdminHandler) ApproveSellerRequest(c *gin.Context) {
	reviewerID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id", "seller request")
	if !ok {
		return
	}

	result, err := h.reviews.Approve(c.Request.Context(), requestID, reviewerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// RejectSellerRequest rejects an application with a reason
// POST /api/v1/admin/seller-requests/:id/reject
func (h *AdminHandler) RejectSellerRequest(c *gin.Context) {
	reviewerID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id", "seller request")
	if !ok {
		return
	}

	// An empty body is an empty reason; Reject reports the missing field.
	var input entities.RejectSellerRequestInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}

	req, err := h.reviews.Reject(c.Request.Context(), requestID, reviewerID, input.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, req)
}
