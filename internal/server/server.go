package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/avatar"
	"github.com/dukerupert/choreboard/internal/handler"
	"github.com/dukerupert/choreboard/internal/middleware"
	"github.com/dukerupert/choreboard/internal/ocr"
	"github.com/dukerupert/choreboard/internal/store"
	ws "github.com/dukerupert/choreboard/internal/websocket"
)

// Config carries everything the server needs beyond its stores.
type Config struct {
	Admin     handler.AdminCredentials
	ClientDir string
	AvatarDir string
	OCRURL    string
}

type Server struct {
	hub         *ws.Hub
	authH       *handler.AuthHandler
	groupH      *handler.GroupHandler
	goalH       *handler.GoalHandler
	choreH      *handler.ChoreHandler
	logH        *handler.LogHandler
	userH       *handler.UserHandler
	ocrH        *handler.OCRHandler
	jwtManager  *auth.JWTManager
	rateLimiter *middleware.RateLimiter
	avatarDir   string
	clientDir   string
	logger      *slog.Logger
}

func New(s *store.Store, avatars *avatar.Store, jwtManager *auth.JWTManager, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	ocrClient := ocr.NewClient(cfg.OCRURL)

	return &Server{
		hub:         hub,
		authH:       handler.NewAuthHandler(s, jwtManager, cfg.Admin, logger.With("component", "auth")),
		groupH:      handler.NewGroupHandler(s, logger.With("component", "group")),
		goalH:       handler.NewGoalHandler(s, hub, logger.With("component", "goal")),
		choreH:      handler.NewChoreHandler(s, hub, logger.With("component", "chore")),
		logH:        handler.NewLogHandler(s, hub, logger.With("component", "log")),
		userH:       handler.NewUserHandler(s, avatars, jwtManager, hub, logger.With("component", "user")),
		ocrH:        handler.NewOCRHandler(ocrClient, logger.With("component", "ocr")),
		jwtManager:  jwtManager,
		rateLimiter: middleware.NewRateLimiter(),
		avatarDir:   avatars.Dir(),
		clientDir:   cfg.ClientDir,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/admin/login", s.rateLimitedHandler(s.authH.AdminLogin))
	outerMux.HandleFunc("POST /api/ocr", s.ocrH.Recognize)
	outerMux.HandleFunc("POST /api/ocr/preview", s.ocrH.Preview)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
	outerMux.Handle("GET /avatars/", http.StripPrefix("/avatars/", http.FileServer(http.Dir(s.avatarDir))))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /", http.FileServer(http.Dir(s.clientDir)))

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/api/", middleware.RequireAuth(s.jwtManager)(protectedMux))

	// Admin routes require the admin token
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/admin/avatars", s.userH.ListAvatars)
	adminMux.HandleFunc("DELETE /api/admin/avatars/{file}", s.userH.AdminDeleteAvatar)
	outerMux.Handle("/api/admin/avatars", middleware.RequireAdmin(s.jwtManager)(adminMux))
	outerMux.Handle("/api/admin/avatars/", middleware.RequireAdmin(s.jwtManager)(adminMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Group API routes
	mux.HandleFunc("GET /api/groups/autocomplete", s.groupH.Autocomplete)
	mux.HandleFunc("POST /api/groups", s.groupH.Create)

	// Weekly goal API routes
	mux.HandleFunc("GET /api/weekly-goals", s.goalH.List)
	mux.HandleFunc("POST /api/weekly-goals", s.goalH.Create)

	// Chore API routes
	mux.HandleFunc("GET /api/chores/autocomplete", s.choreH.Autocomplete)
	mux.HandleFunc("POST /api/chores", s.choreH.Log)
	mux.HandleFunc("GET /api/chores/top", s.choreH.Top)

	// Log API routes
	mux.HandleFunc("GET /api/logs", s.logH.List)
	mux.HandleFunc("GET /api/logs/all", s.logH.ListAll)
	mux.HandleFunc("GET /api/summary", s.logH.Summary)
	mux.HandleFunc("DELETE /api/logs/{id}", s.logH.Delete)

	// User API routes
	mux.HandleFunc("GET /api/users/me", s.userH.Me)
	mux.HandleFunc("POST /api/users/avatar", s.userH.UpdateAvatar)
	mux.HandleFunc("POST /api/users/username", s.userH.UpdateUsername)
	mux.HandleFunc("GET /api/avatars", s.userH.ListAvatars)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
