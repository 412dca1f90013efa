package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexconnect-server/internal/directory"
)

type UserHandler struct {
	Directory directory.Directory
	Timeout   time.Duration
}

// Search looks a user up by contact. Only the public profile leaves the
// directory; email and phone stay private.
func (h *UserHandler) Search(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	user, err := h.Directory.FindUserByContact(ctx, directory.ContactQuery{
		Email:       c.Query("email"),
		PhoneNumber: c.Query("phone"),
		DisplayName: c.Query("name"),
	})
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNoContact):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Provide email, phone or name"})
		case errors.Is(err, directory.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": user.ID, "displayName": user.DisplayName}})
}
