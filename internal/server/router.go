package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"nexconnect-server/internal/auth"
	"nexconnect-server/internal/directory"
	"nexconnect-server/internal/friends"
	"nexconnect-server/internal/handler"
	"nexconnect-server/internal/hub"
	"nexconnect-server/internal/middleware"
	"nexconnect-server/internal/otp"
	"nexconnect-server/internal/presence"
	"nexconnect-server/pkg/email"
)

type Deps struct {
	Directory directory.Directory
	Sessions  *auth.Manager
	Presence  *presence.Tracker
	Graph     *friends.Graph
	OTP       *otp.Store
	Mail      email.Sender
	Hub       *hub.Hub
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	credentialLimiter := middleware.NewRateLimiter(10, time.Minute)
	authHandler := &handler.AuthHandler{
		Directory: deps.Directory,
		Sessions:  deps.Sessions,
		OTP:       deps.OTP,
		Mail:      deps.Mail,
		Timeout:   deps.Timeout,
		Logger:    deps.Logger,
	}

	limited := r.Group("/v1/auth")
	limited.Use(middleware.RateLimitMiddleware(credentialLimiter))
	limited.POST("/register", authHandler.Register)
	limited.POST("/login", authHandler.Login)
	limited.POST("/otp", authHandler.SendOTP)
	limited.POST("/verify", authHandler.VerifyEmail)

	protected := r.Group("/v1")
	protected.Use(middleware.RequireAuth(deps.Sessions, deps.Timeout))
	protected.POST("/auth/logout", authHandler.Logout)

	friendsHandler := &handler.FriendsHandler{
		Graph:     deps.Graph,
		Directory: deps.Directory,
		Timeout:   deps.Timeout,
		Logger:    deps.Logger,
	}
	protected.GET("/friends/requests", friendsHandler.List)
	protected.POST("/friends/requests", friendsHandler.Send)
	protected.POST("/friends/requests/:id/respond", friendsHandler.Respond)

	presenceHandler := &handler.PresenceHandler{Tracker: deps.Presence}
	protected.GET("/users/:id/presence", presenceHandler.Get)

	userHandler := &handler.UserHandler{Directory: deps.Directory, Timeout: deps.Timeout}
	protected.GET("/users/search", userHandler.Search)

	wsHandler := &handler.WebSocketHandler{
		Hub:      deps.Hub,
		Sessions: deps.Sessions,
		Presence: deps.Presence,
		Timeout:  deps.Timeout,
		Logger:   deps.Logger,
	}
	r.GET("/ws", wsHandler.Serve)

	return r
}
