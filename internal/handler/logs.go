package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

type LogHandler struct {
	store  *store.Store
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewLogHandler(s *store.Store, hub *websocket.Hub, logger *slog.Logger) *LogHandler {
	return &LogHandler{store: s, hub: hub, logger: logger}
}

func (h *LogHandler) notify() {
	if h.hub != nil {
		h.hub.NotifyChanged()
	}
}

// List returns the caller's own logs with chore and group names.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListLogsForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// ListAll returns every user's logs. Any authenticated user may call this.
func (h *LogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListAllLogs()
	if err != nil {
		h.logger.Error("list all logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Delete removes one of the caller's logs by id. A log owned by another user
// yields the same not-found response as a missing one.
func (h *LogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteLog(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Log not found")
			return
		}
		h.logger.Error("delete log", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete log")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// Summary counts logs per user within an inclusive timestamp window,
// defaulting to [0, now] when bounds are absent or non-numeric.
func (h *LogHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from := parseMillis(r.URL.Query().Get("from"), 0)
	to := parseMillis(r.URL.Query().Get("to"), time.Now().UnixMilli())

	counts, err := h.store.Summary(from, to)
	if err != nil {
		h.logger.Error("summary", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to summarize logs")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func parseMillis(s string, fallback int64) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v == 0 {
		return fallback
	}
	return v
}
