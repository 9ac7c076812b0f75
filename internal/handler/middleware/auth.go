package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	jwtpkg "blockparty/server/pkg/jwt"
	"blockparty/server/pkg/response"
)

const ContextKeyUserClaims = "user_claims"

// JWTAuth requires a valid Bearer access token and stores its claims on the
// request context.
func JWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		claims, err := parseBearer(jwtManager, authHeader)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(ContextKeyUserClaims, claims)
		c.Next()
	}
}

// OptionalJWTAuth stores claims when a valid token is presented but lets
// anonymous requests through. Used by read endpoints whose results only
// widen with identity.
func OptionalJWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			if claims, err := parseBearer(jwtManager, authHeader); err == nil {
				c.Set(ContextKeyUserClaims, claims)
			}
		}
		c.Next()
	}
}

func parseBearer(jwtManager *jwtpkg.Manager, authHeader string) (*jwtpkg.Claims, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errInvalidAuthHeader
	}

	claims, err := jwtManager.Validate(parts[1])
	if err != nil {
		return nil, errInvalidToken
	}
	if claims.TokenType != jwtpkg.TokenTypeAccess {
		return nil, errInvalidToken
	}
	return claims, nil
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errInvalidAuthHeader = authError("invalid authorization format")
	errInvalidToken      = authError("invalid or expired token")
)
