package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/avatar"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const maxAvatarUpload = 10 << 20 // 10 MiB

type UserHandler struct {
	store      *store.Store
	avatars    *avatar.Store
	jwtManager *auth.JWTManager
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewUserHandler(s *store.Store, av *avatar.Store, jm *auth.JWTManager, hub *websocket.Hub, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: s, avatars: av, jwtManager: jm, hub: hub, logger: logger}
}

func (h *UserHandler) notify() {
	if h.hub != nil {
		h.hub.NotifyChanged()
	}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
	})
}

// UpdateAvatar sets the caller's avatar from one of three sources: a
// built-in identifier, an existing file in the avatar store, or a fresh
// image upload.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarUpload); err != nil {
		writeError(w, http.StatusBadRequest, "No file")
		return
	}

	if builtin := r.FormValue("builtin"); builtin != "" {
		h.setAvatar(w, r, builtin)
		return
	}

	if existing := r.FormValue("existing"); existing != "" {
		if decoded, err := url.QueryUnescape(existing); err == nil {
			existing = decoded
		}
		name := filepath.Base(existing)
		if !h.avatars.Exists(name) {
			writeError(w, http.StatusBadRequest, "Invalid file")
			return
		}
		h.setAvatar(w, r, name)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		writeError(w, http.StatusBadRequest, "Only image files allowed")
		return
	}

	name, err := h.avatars.Save(header.Filename, file)
	if err != nil {
		h.logger.Error("save avatar", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save avatar")
		return
	}
	h.setAvatar(w, r, name)
}

func (h *UserHandler) setAvatar(w http.ResponseWriter, r *http.Request, value string) {
	user, err := h.store.SetAvatar(auth.UserID(r.Context()), value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("set avatar", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Avatar updated", "avatar": user.Avatar})
}

// UpdateUsername renames the caller and reissues their token, since the
// credential embeds the username.
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing username")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "Missing username")
		return
	}

	user, err := h.store.SetUsername(auth.UserID(r.Context()), username)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "Username taken")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("set username", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update username")
		}
		return
	}

	token, err := h.jwtManager.GenerateUser(user.ID, user.Username)
	if err != nil {
		h.logger.Error("sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update username")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Username updated",
		"username": user.Username,
		"token":    token,
	})
}

// ListAvatars returns the filenames in the avatar store.
func (h *UserHandler) ListAvatars(w http.ResponseWriter, r *http.Request) {
	names, err := h.avatars.List()
	if err != nil {
		h.logger.Error("list avatars", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read avatars")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// AdminDeleteAvatar removes an avatar file and clears it from any user
// record referencing it.
func (h *UserHandler) AdminDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if name == "" || name != filepath.Base(name) {
		writeError(w, http.StatusBadRequest, "Invalid file")
		return
	}

	if err := h.avatars.Delete(name); err != nil {
		h.logger.Error("delete avatar file", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete")
		return
	}

	changed, err := h.store.ClearAvatar(name)
	if err != nil {
		h.logger.Error("clear avatar references", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete")
		return
	}
	if changed {
		h.notify()
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}
