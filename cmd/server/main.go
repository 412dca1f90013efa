package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"nexconnect-server/internal/auth"
	"nexconnect-server/internal/config"
	"nexconnect-server/internal/directory"
	"nexconnect-server/internal/friends"
	"nexconnect-server/internal/hub"
	"nexconnect-server/internal/logger"
	"nexconnect-server/internal/otp"
	"nexconnect-server/internal/presence"
	"nexconnect-server/internal/server"
	"nexconnect-server/internal/tokenstore"
	"nexconnect-server/pkg/email"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	dir := directory.NewMemory()
	sessions := auth.NewManager(auth.TokenConfig{
		Secret: cfg.MasterSecret,
		Expiry: cfg.TokenExpiry,
		Issuer: "nexconnect-server",
	}, tokenstore.NewRedisStore(redisClient))

	wsHub := hub.New()
	tracker := presence.NewWithOptions(presence.Options{
		OnChange: server.PresenceNotifier(wsHub, dir, cfg.StoreTimeout, log),
	})

	var mail email.Sender
	if cfg.SMTPHost != "" {
		mail = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		mail = &email.LogSender{Logger: log}
	}

	router := server.NewRouter(server.Deps{
		Directory: dir,
		Sessions:  sessions,
		Presence:  tracker,
		Graph:     friends.NewGraph(dir),
		OTP:       otp.NewStore(redisClient, cfg.OTPTTL),
		Mail:      mail,
		Hub:       wsHub,
		Timeout:   cfg.StoreTimeout,
		Logger:    log,
	})

	srv := server.NewHTTPServer(cfg, router)
	go func() {
		if err := server.Run(srv, cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("listening", "addr", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := server.Shutdown(srv, 10*time.Second); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Error("redis close failed", "error", err)
	}
}
