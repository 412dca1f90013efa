package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexconnect-server/internal/auth"
	"nexconnect-server/internal/directory"
	"nexconnect-server/internal/middleware"
	"nexconnect-server/internal/otp"
	"nexconnect-server/pkg/email"
)

type AuthHandler struct {
	Directory directory.Directory
	Sessions  *auth.Manager
	OTP       *otp.Store
	Mail      email.Sender
	Timeout   time.Duration
	Logger    *slog.Logger
}

type registerBody struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password" binding:"required,min=8"`
}

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type otpBody struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyBody struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h *AuthHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

func userJSON(id, displayName, emailAddr string, verified bool) gin.H {
	return gin.H{
		"id":          id,
		"displayName": displayName,
		"email":       emailAddr,
		"verified":    verified,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Directory.Register(ctx, body.DisplayName, body.Email, body.PhoneNumber, body.Password)
	if err != nil {
		if errors.Is(err, directory.ErrDuplicateUser) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		h.Logger.Error("register failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	token, err := h.Sessions.Issue(user.ID)
	if err != nil {
		h.Logger.Error("token issue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  userJSON(user.ID, user.DisplayName, user.Email, user.Verified),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Directory.Authenticate(ctx, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.Logger.Error("login failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	token, err := h.Sessions.Issue(user.ID)
	if err != nil {
		h.Logger.Error("token issue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userJSON(user.ID, user.DisplayName, user.Email, user.Verified),
	})
}

// Logout revokes the presented token. Revocation is idempotent, so a repeat
// logout with the same token succeeds from the client's point of view after
// the middleware has already rejected it.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.TokenFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, token); err != nil {
		if errors.Is(err, auth.ErrTransient) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var body otpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	code, err := h.OTP.Generate(ctx, body.Email)
	if err != nil {
		h.Logger.Error("otp generate failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	if err := h.Mail.Send(body.Email, "Your verification code", "Your verification code is "+code); err != nil {
		h.Logger.Error("otp mail failed", "to", body.Email, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var body verifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.OTP.Verify(ctx, body.Email, body.Code); err != nil {
		if errors.Is(err, otp.ErrCodeInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
			return
		}
		h.Logger.Error("otp verify failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	if err := h.Directory.MarkVerified(ctx, body.Email); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.Logger.Error("mark verified failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
