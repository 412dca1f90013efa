package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexconnect-server/internal/presence"
)

type PresenceHandler struct {
	Tracker *presence.Tracker
}

// Get reports a user's presence. lastSeen is null while the user has never
// completed an online stretch.
func (h *PresenceHandler) Get(c *gin.Context) {
	userID := c.Param("id")

	var lastSeen any
	if ts, ok := h.Tracker.LastSeen(userID); ok {
		lastSeen = ts
	}
	c.JSON(http.StatusOK, gin.H{
		"online":   h.Tracker.IsOnline(userID),
		"lastSeen": lastSeen,
	})
}
