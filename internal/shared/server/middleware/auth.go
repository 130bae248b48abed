package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/server/respond"
)

const (
	userIDKey   = "userId"
	usernameKey = "username"
)

// Auth validates bearer JWTs and stores identity in context.
func Auth(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := signer.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Sub)
		if claims.Username != "" {
			c.Set(usernameKey, claims.Username)
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UsernameFromContext fetches the username set by the auth middleware.
func UsernameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(usernameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}
