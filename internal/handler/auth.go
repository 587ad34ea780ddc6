package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
)

type AuthHandler struct {
	accounts *auth.Accounts
	sessions *auth.Manager
	cookies  *auth.Cookies
	logger   *slog.Logger
}

func NewAuthHandler(accounts *auth.Accounts, sessions *auth.Manager, cookies *auth.Cookies, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, cookies: cookies, logger: logger}
}

// LoginPage sends signed-in users on to their destination.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		redirect(w, r, localPath(r.URL.Query().Get("redirect"), "/"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		redirect(w, r, "/")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Signup(r.Context(), r.FormValue("name"), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !h.startSession(w, r, u.ID, checkbox(r, "rememberMe")) {
		return
	}
	h.logger.Info("user signed up", "user_id", u.ID)
	redirect(w, r, "/")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !h.startSession(w, r, u.ID, checkbox(r, "rememberMe")) {
		return
	}
	redirect(w, r, localPath(r.URL.Query().Get("redirect"), "/"))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionID(r.Context())
	if sessionID == "" {
		writeError(w, h.logger, apperr.New(apperr.Unauthenticated, "Unauthorized"))
		return
	}
	if err := h.sessions.Invalidate(r.Context(), sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, h.cookies.Blank())
	redirect(w, r, "/login")
}

// startSession issues a session cookie for userID. It reports false after
// writing an error response.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID string, rememberMe bool) bool {
	token, sess, err := h.sessions.Create(r.Context(), userID, rememberMe)
	if err != nil {
		writeError(w, h.logger, err)
		return false
	}
	http.SetCookie(w, h.cookies.Session(token, sess.ExpiresAt))
	return true
}
