package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const topChoresLimit = 10

type ChoreHandler struct {
	store  *store.Store
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewChoreHandler(s *store.Store, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{store: s, hub: hub, logger: logger}
}

func (h *ChoreHandler) notify() {
	if h.hub != nil {
		h.hub.NotifyChanged()
	}
}

type logChoreRequest struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Ts    any    `json:"ts"`
}

// Log records a chore completion for the caller, creating the group and
// chore on first reference.
func (h *ChoreHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req logChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing chore name")
		return
	}

	entry, err := h.store.LogChore(auth.UserID(r.Context()), req.Name, req.Group, coerceTimestamp(req.Ts))
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Missing chore name")
			return
		}
		h.logger.Error("log chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to log chore")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged", "log": entry})
}

func (h *ChoreHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.AutocompleteChores(r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("autocomplete chores", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list chores")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *ChoreHandler) Top(w http.ResponseWriter, r *http.Request) {
	top, err := h.store.TopChores(topChoresLimit)
	if err != nil {
		h.logger.Error("top chores", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to rank chores")
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// coerceTimestamp turns a client-supplied ts (JSON number or numeric string)
// into epoch milliseconds. Anything unusable yields nil and the server
// assigns the current time; a malformed timestamp is never an error.
func coerceTimestamp(v any) *int64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		ms := int64(t)
		return &ms
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		ms := int64(f)
		return &ms
	default:
		return nil
	}
}
