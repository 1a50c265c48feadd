package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/store"
)

// AdminCredentials is the static admin account configured by environment.
type AdminCredentials struct {
	Username string
	Password string
}

type AuthHandler struct {
	store      *store.Store
	jwtManager *auth.JWTManager
	admin      AdminCredentials
	logger     *slog.Logger
}

func NewAuthHandler(s *store.Store, jm *auth.JWTManager, admin AdminCredentials, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: s, jwtManager: jm, admin: admin, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	if _, err := h.store.CreateUser(req.Username, hash); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "User exists")
			return
		}
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Registered"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		// Unknown user and wrong password are indistinguishable.
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := h.jwtManager.GenerateUser(user.ID, user.Username)
	if err != nil {
		h.logger.Error("sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if req.Username != h.admin.Username || req.Password != h.admin.Password {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := h.jwtManager.GenerateAdmin()
	if err != nil {
		h.logger.Error("sign admin token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
