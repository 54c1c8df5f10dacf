package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/pkg/logger"
	"marketplace.backend/pkg/utils"
)

// UserRoleKey is the gin context key the auth middleware stores the caller's role under
const UserRoleKey = "userRole"

// ErrorBody is the error part of the envelope
type ErrorBody struct {
	Code    string                    `json:"code"`
	Details []domainerrors.FieldError `json:"details,omitempty"`
}

// Success sends {success: true, data}
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// SuccessWithMeta sends a page of items with pagination metadata
func SuccessWithMeta(c *gin.Context, data interface{}, meta utils.PaginationMeta) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"meta":    meta,
	})
}

// Error sends an error envelope. Server errors are logged, and only admins see
// the underlying cause.
func Error(c *gin.Context, err error) {
	appErr, ok := domainerrors.As(err)
	if !ok {
		appErr = domainerrors.InternalError(err)
	}

	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("code", appErr.Code),
			zap.String("path", c.Request.URL.Path),
			zap.Error(appErr),
			zap.String("cause", appErr.Detail()),
		)
		if c.GetString(UserRoleKey) == "admin" {
			message = appErr.Detail()
		}
	}

	c.AbortWithStatusJSON(appErr.Status, gin.H{
		"success": false,
		"message": message,
		"error": ErrorBody{
			Code:    appErr.Code,
			Details: appErr.Details,
		},
	})
}

// ErrorWithError sends an error envelope with a specific status, code and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   ErrorBody{Code: code},
	})
}
