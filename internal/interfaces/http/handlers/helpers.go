package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	domainerrors "marketplace.backend/internal/domain/errors"
	"marketplace.backend/internal/interfaces/http/middleware"
	"marketplace.backend/internal/interfaces/http/response"
	"marketplace.backend/pkg/utils"
)

// currentUser returns the authenticated caller or writes a 401
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == uuid.Nil {
		response.Error(c, domainerrors.Unauthorized("unauthorized"))
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a uuid route parameter or writes a 400
func pathID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := utils.ParseID(c.Param(param))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid "+label+" id"))
		return uuid.Nil, false
	}
	return id, true
}
