package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/membership"
)

type SettingsHandler struct {
	accounts *auth.Accounts
	sessions *auth.Manager
	cookies  *auth.Cookies
	homes    *membership.Service
	logger   *slog.Logger
}

func NewSettingsHandler(accounts *auth.Accounts, sessions *auth.Manager, cookies *auth.Cookies, homes *membership.Service, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{accounts: accounts, sessions: sessions, cookies: cookies, homes: homes, logger: logger}
}

// View returns the account and whether deleting it is currently blocked.
func (h *SettingsHandler) View(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	blocking, err := h.homes.SoleOwnerHomes(r.Context(), id.User.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":              id.User,
		"hasSoleOwnerHomes": len(blocking) > 0,
	})
}

// ChangePassword signs out every session of the user, then issues a new
// one for this client.
func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	err := h.accounts.ChangePassword(r.Context(), id.User.ID,
		r.FormValue("currentPassword"), r.FormValue("newPassword"), r.FormValue("confirmPassword"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rememberMe := id.Session != nil && id.Session.RememberMe
	token, sess, err := h.sessions.Create(r.Context(), id.User.ID, rememberMe)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, h.cookies.Session(token, sess.ExpiresAt))
	h.logger.Info("password changed", "user_id", id.User.ID)
	writeSuccess(w, map[string]any{"message": "Password changed successfully"})
}

func (h *SettingsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.homes.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, h.cookies.Blank())
	h.logger.Info("account deleted", "user_id", userID)
	redirect(w, r, "/signup")
}

// SignOutEverywhere ends every session of the user, this one included.
func (h *SettingsHandler) SignOutEverywhere(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.sessions.InvalidateUser(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, h.cookies.Blank())
	h.logger.Info("signed out everywhere", "user_id", userID)
	redirect(w, r, "/login")
}
