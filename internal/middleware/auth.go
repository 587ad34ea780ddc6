package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
)

// SessionValidator resolves a session token to the caller's identity.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*auth.Result, error)
}

// Authenticate resolves the session cookie on every request. A valid
// session puts an auth.Identity in the context and a renewed one gets a
// fresh cookie; a stale cookie is blanked. Requests without a valid session
// continue anonymously.
func Authenticate(sessions SessionValidator, cookies *auth.Cookies, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.Token(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := sessions.Validate(r.Context(), token)
			if err != nil {
				// Storage trouble: serve the request anonymously but keep
				// the cookie so the session survives the outage.
				apperr.Log(logger, "validate session", err)
				next.ServeHTTP(w, r)
				return
			}
			if res == nil {
				http.SetCookie(w, cookies.Blank())
				next.ServeHTTP(w, r)
				return
			}
			if res.Fresh {
				http.SetCookie(w, cookies.Session(token, res.Session.ExpiresAt))
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{User: res.User, Session: res.Session})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests. API callers get a JSON 401,
// HTMX requests an HX-Redirect, everything else a redirect to /login.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			rejectAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rejectAnonymous(w http.ResponseWriter, r *http.Request) {
	switch {
	case wantsJSON(r):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
