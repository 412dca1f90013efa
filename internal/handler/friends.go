package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexconnect-server/internal/directory"
	"nexconnect-server/internal/friends"
	"nexconnect-server/internal/middleware"
	"nexconnect-server/internal/model"
)

type FriendsHandler struct {
	Graph     *friends.Graph
	Directory directory.Directory
	Timeout   time.Duration
	Logger    *slog.Logger
}

type sendRequestBody struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	DisplayName string `json:"displayName"`
}

type respondBody struct {
	Decision string `json:"decision" binding:"required,oneof=accept decline"`
}

func edgeJSON(edge model.FriendEdge) gin.H {
	out := gin.H{
		"id":          edge.ID,
		"senderId":    edge.SenderID,
		"recipientId": edge.RecipientID,
		"status":      string(edge.Status),
		"sentAt":      edge.SentAt,
	}
	if edge.Resolved() {
		out["resolvedAt"] = edge.ResolvedAt
	}
	return out
}

func (h *FriendsHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

// Send resolves the recipient by contact and creates a pending request.
// Conflicts come back as 409 with distinct error strings so clients can
// treat a duplicate as a no-op.
func (h *FriendsHandler) Send(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	recipient, err := h.Directory.FindUserByContact(ctx, directory.ContactQuery{
		Email:       body.Email,
		PhoneNumber: body.PhoneNumber,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNoContact):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Provide email, phoneNumber or displayName"})
		case errors.Is(err, directory.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			h.Logger.Error("contact lookup failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		}
		return
	}

	edge, err := h.Graph.SendRequest(ctx, userID, recipient.ID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrSelfRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send request to yourself"})
		case errors.Is(err, friends.ErrAlreadyFriends):
			c.JSON(http.StatusConflict, gin.H{"error": "Already friends"})
		case errors.Is(err, friends.ErrDuplicatePending):
			c.JSON(http.StatusConflict, gin.H{"error": "Friend request already sent"})
		default:
			h.Logger.Error("send request failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": edgeJSON(edge)})
}

// Respond accepts or declines an inbound request. Only the recipient may
// respond; anyone else sees the same 404 as a missing edge.
func (h *FriendsHandler) Respond(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	edgeID := c.Param("id")
	edge, found := h.Graph.Get(edgeID)
	if !found || edge.RecipientID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	resolved, err := h.Graph.Respond(ctx, edgeID, friends.Decision(body.Decision))
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		case errors.Is(err, friends.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "Request already resolved"})
		default:
			h.Logger.Error("respond failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": edgeJSON(resolved)})
}

// List returns the caller's inbound pending requests, oldest first, each
// enriched with the sender's public profile.
func (h *FriendsHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	pending := h.Graph.ListPending(ctx, userID)
	requests := make([]gin.H, 0, len(pending))
	for _, edge := range pending {
		item := edgeJSON(edge)
		if sender, err := h.Directory.FindUserByID(ctx, edge.SenderID); err == nil {
			item["sender"] = gin.H{"id": sender.ID, "displayName": sender.DisplayName}
		}
		requests = append(requests, item)
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}
