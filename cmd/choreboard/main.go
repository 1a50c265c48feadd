package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/avatar"
	"github.com/dukerupert/choreboard/internal/handler"
	"github.com/dukerupert/choreboard/internal/logging"
	"github.com/dukerupert/choreboard/internal/server"
	"github.com/dukerupert/choreboard/internal/store"
)

const tokenDuration = 24 * time.Hour

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(envOr("LOG_LEVEL", "info"))

	port := envOr("PORT", "3000")
	dbFile := envOr("DB_FILE", "db.json")
	secret := envOr("SECRET", "replace-this-secret")
	avatarDir := envOr("AVATAR_DIR", "avatars")
	clientDir := envOr("CLIENT_DIR", "client")

	ocrHost := envOr("OCR_HOST", "localhost")
	ocrPort := envOr("OCR_PORT", "5000")

	st, err := store.Open(dbFile)
	if err != nil {
		logger.Error("open store", "path", dbFile, "error", err)
		os.Exit(1)
	}

	avatars, err := avatar.NewStore(avatarDir)
	if err != nil {
		logger.Error("open avatar store", "dir", avatarDir, "error", err)
		os.Exit(1)
	}

	jwtManager := auth.NewJWTManager(secret, tokenDuration)

	srv := server.New(st, avatars, jwtManager, server.Config{
		Admin: handler.AdminCredentials{
			Username: envOr("ADMIN_USER", "admin"),
			Password: envOr("ADMIN_PASS", "adminpass"),
		},
		ClientDir: clientDir,
		AvatarDir: avatarDir,
		OCRURL:    fmt.Sprintf("http://%s:%s", ocrHost, ocrPort),
	}, logger)

	// Drop expired rate limit windows so the map doesn't grow unbounded.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "db", st.Path())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
