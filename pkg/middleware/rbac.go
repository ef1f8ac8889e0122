package middleware

import (
	"strings"

	"literary-character-ai/backend/pkg/errors"
	"literary-character-ai/backend/pkg/jwt"
	"literary-character-ai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware
const (
	ClaimsKey = "claims"
	UserIDKey = "userId"
)

// JWTAuthMiddleware checks that the request has a valid JWT and adds claims to the context.
// Browsers cannot set headers on a WebSocket upgrade, so a token query
// parameter is accepted as well.
func JWTAuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authorization header is required"))
			c.Abort()
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			logger.FromContext(c).Warn("Invalid JWT token", "error", err.Error())
			c.Error(errors.NewUnauthorizedError("INVALID_TOKEN", "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)

		c.Next()
	}
}

// UserID returns the authenticated user's ID set by JWTAuthMiddleware
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// RequireRole returns a middleware that requires the user to have a specific role
func RequireRole(role jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get(ClaimsKey)
		if !exists {
			c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
			c.Abort()
			return
		}

		jwtClaims, ok := claims.(*jwt.JWTClaims)
		if !ok {
			c.Error(errors.NewInternalServerError("INVALID_CLAIMS", "Invalid JWT claims format"))
			c.Abort()
			return
		}

		if !jwtClaims.HasRole(role) {
			c.Error(errors.NewForbiddenError("INSUFFICIENT_ROLE", "Your role does not allow this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}
