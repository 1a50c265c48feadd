package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

type GoalHandler struct {
	store  *store.Store
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGoalHandler(s *store.Store, hub *websocket.Hub, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{store: s, hub: hub, logger: logger}
}

func (h *GoalHandler) notify() {
	if h.hub != nil {
		h.hub.NotifyChanged()
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.store.ListWeeklyGoals()
	if err != nil {
		h.logger.Error("list weekly goals", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Group string `json:"group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing goal name")
		return
	}

	goal, err := h.store.CreateWeeklyGoal(req.Name, req.Group)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Missing goal name")
			return
		}
		h.logger.Error("create weekly goal", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create goal")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, goal)
}
