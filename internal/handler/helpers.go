package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blockparty/server/internal/handler/middleware"
	"blockparty/server/internal/service"
	jwtpkg "blockparty/server/pkg/jwt"
	"blockparty/server/pkg/response"
)

var errNoClaims = errors.New("claims not found in context")

func principalFromContext(c *gin.Context) (service.Principal, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return service.Principal{}, errNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return service.Principal{}, errNoClaims
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return service.Principal{}, errNoClaims
	}
	return service.Principal{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// mapServiceError translates the service error taxonomy to HTTP responses.
// Messages are surfaced verbatim; the presentation layer displays them as-is.
func mapServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "not authorized to perform this action")
	case errors.Is(err, service.ErrPartyNotFound),
		errors.Is(err, service.ErrRSVPNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrPartyNotVerified),
		errors.Is(err, service.ErrDuplicateRSVP),
		errors.Is(err, service.ErrPartyFull):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, "internal server error")
	}
}
