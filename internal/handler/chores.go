package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/chore"
)

type ChoreHandler struct {
	chores *chore.Service
	logger *slog.Logger
}

func NewChoreHandler(chores *chore.Service, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: chores, logger: logger}
}

// Dashboard lists the home's rooms with their chores and progress.
func (h *ChoreHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.chores.Dashboard(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *ChoreHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.chores.CreateRoom(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"),
		r.FormValue("name"), r.FormValue("icon"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, map[string]any{"room": room})
}

func (h *ChoreHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.chores.UpdateRoom(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"),
		r.PathValue("roomID"), r.FormValue("name"), r.FormValue("icon"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, map[string]any{"room": room})
}

func (h *ChoreHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	err := h.chores.DeleteRoom(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"), r.PathValue("roomID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, nil)
}

func (h *ChoreHandler) CreateChore(w http.ResponseWriter, r *http.Request) {
	c, err := h.chores.CreateChore(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"),
		r.FormValue("roomId"), r.FormValue("title"), frequencyWeeks(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, map[string]any{"chore": c})
}

func (h *ChoreHandler) UpdateChore(w http.ResponseWriter, r *http.Request) {
	c, err := h.chores.UpdateChore(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"),
		r.PathValue("choreID"), r.FormValue("title"), frequencyWeeks(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, map[string]any{"chore": c})
}

func (h *ChoreHandler) CompleteChore(w http.ResponseWriter, r *http.Request) {
	c, err := h.chores.CompleteChore(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"), r.PathValue("choreID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, map[string]any{"chore": c})
}

func (h *ChoreHandler) DeleteChore(w http.ResponseWriter, r *http.Request) {
	err := h.chores.DeleteChore(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"), r.PathValue("choreID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, nil)
}

// frequencyWeeks reads the form value, defaulting to one week when it is
// missing or not a number. The service clamps the range.
func frequencyWeeks(r *http.Request) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("frequencyWeeks")))
	if err != nil {
		return 1
	}
	return n
}
