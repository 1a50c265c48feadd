package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/store"
)

type GroupHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewGroupHandler(s *store.Store, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{store: s, logger: logger}
}

func (h *GroupHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.AutocompleteGroups(r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("autocomplete groups", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list groups")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// Create finds or creates a group by name. Creating a group on its own is
// not broadcast; viewers only care once something references it.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing group name")
		return
	}

	group, err := h.store.ResolveGroup(req.Name)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Missing group name")
			return
		}
		h.logger.Error("resolve group", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}
