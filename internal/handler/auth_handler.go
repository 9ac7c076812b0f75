package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blockparty/server/internal/service"
	"blockparty/server/pkg/response"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Authorize redirects the browser to the identity provider.
func (h *AuthHandler) Authorize(c *gin.Context) {
	authURL, err := h.authService.AuthorizationURL(c.Request.Context(), c.Param("provider"))
	if err != nil {
		if errors.Is(err, service.ErrOAuth2ProviderNotConfigured) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to start login")
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// Callback completes the provider round-trip and returns a token set.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.BadRequest(c, "code and state are required")
		return
	}

	tokenSet, err := h.authService.HandleCallback(c.Request.Context(), c.Param("provider"), code, state)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuth2InvalidState):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrOAuth2TokenExchange),
			errors.Is(err, service.ErrOAuth2UserInfo):
			response.Error(c, http.StatusBadGateway, 502, err.Error())
		case errors.Is(err, service.ErrOAuth2ProviderNotConfigured):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "login failed")
		}
		return
	}

	response.Success(c, tokenSet)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tokenSet, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrRefreshTokenInvalid) {
			response.Unauthorized(c, "invalid refresh token")
			return
		}
		response.InternalError(c, "token refresh failed")
		return
	}

	response.Success(c, tokenSet)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.InternalError(c, "logout failed")
		return
	}

	response.Success(c, nil)
}

// Me returns the authenticated principal from the session claims.
func (h *AuthHandler) Me(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	response.Success(c, gin.H{
		"user_id": p.UserID,
		"email":   p.Email,
		"name":    p.Name,
	})
}
