package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/membership"
	"github.com/dukerupert/hearth/internal/model"
)

type HomeHandler struct {
	homes  *membership.Service
	logger *slog.Logger
}

func NewHomeHandler(homes *membership.Service, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{homes: homes, logger: logger}
}

func (h *HomeHandler) List(w http.ResponseWriter, r *http.Request) {
	homes, err := h.homes.ListHomes(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if homes == nil {
		homes = []model.HomeWithRole{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"homes": homes})
}

func (h *HomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	home, err := h.homes.CreateHome(r.Context(), auth.UserID(r.Context()), r.FormValue("name"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, "/homes/"+home.ID)
}

func (h *HomeHandler) Join(w http.ResponseWriter, r *http.Request) {
	home, err := h.homes.JoinHome(r.Context(), auth.UserID(r.Context()), r.FormValue("shareCode"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, "/homes/"+home.ID)
}

// Manage returns the home, the caller's role and the member list.
func (h *HomeHandler) Manage(w http.ResponseWriter, r *http.Request) {
	view, err := h.homes.Members(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HomeHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.homes.LeaveHome(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, "/")
}

func (h *HomeHandler) Promote(w http.ResponseWriter, r *http.Request) {
	err := h.homes.PromoteMember(r.Context(), auth.UserID(r.Context()), r.FormValue("userId"), r.PathValue("homeID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, nil)
}

func (h *HomeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.homes.RemoveMember(r.Context(), auth.UserID(r.Context()), r.FormValue("userId"), r.PathValue("homeID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, nil)
}

func (h *HomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.homes.DeleteHome(r.Context(), auth.UserID(r.Context()), r.PathValue("homeID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, "/")
}
