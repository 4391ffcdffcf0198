// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeloop/tradeloop-backend/internal/services"
	"github.com/tradeloop/tradeloop-backend/internal/utils"
)

// respondServiceError translates service sentinel errors to HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrNotOwner):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		utils.TooManyRequestsResponse(c, err.Error())
	case errors.Is(err, services.ErrItemUnavailable),
		errors.Is(err, services.ErrItemsUnavailable),
		errors.Is(err, services.ErrNotAccepted),
		errors.Is(err, services.ErrAlreadyConfirmed),
		errors.Is(err, services.ErrInvalidState):
		utils.ConflictResponse(c, err.Error())
	default:
		utils.InternalErrorResponse(c, "")
	}
}

// currentUserID reads the authenticated user's id set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return id, true
}

// parseIDParam parses a uuid path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
