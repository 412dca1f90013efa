package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"nexconnect-server/internal/auth"
)

const (
	userIDContextKey = "userID"
	tokenContextKey  = "sessionToken"
)

func UserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Get(userIDContextKey)
	if !ok {
		return "", false
	}
	value, ok := userID.(string)
	return value, ok && value != ""
}

// TokenFromContext returns the raw bearer token of the current request, for
// handlers that act on the token itself (logout revokes it).
func TokenFromContext(c *gin.Context) (string, bool) {
	tok, ok := c.Get(tokenContextKey)
	if !ok {
		return "", false
	}
	value, ok := tok.(string)
	return value, ok && value != ""
}

// RequireAuth validates the bearer token through the session manager, which
// includes the revocation-marker check. Store trouble surfaces as 503 so
// clients may retry; every authentication failure is a plain 401.
func RequireAuth(sessions *auth.Manager, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		userID, err := sessions.Validate(ctx, parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTransient) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			}
			c.Abort()
			return
		}

		c.Set(userIDContextKey, userID)
		c.Set(tokenContextKey, parts[1])
		c.Next()
	}
}
