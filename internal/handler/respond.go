package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error": msg} with the status of its kind.
// Internal errors are logged and their detail withheld.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if apperr.KindOf(err) == apperr.Internal {
		apperr.Log(logger, "request failed", err)
	}
	writeJSON(w, apperr.Status(err), map[string]string{"error": apperr.Message(err)})
}

func writeSuccess(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// redirect finishes a form action. HTMX gets HX-Redirect, JSON clients get
// the target in the body, browsers get a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	switch {
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", to)
		writeSuccess(w, map[string]any{"redirect": to})
	case strings.Contains(r.Header.Get("Accept"), "application/json"):
		writeSuccess(w, map[string]any{"redirect": to})
	default:
		http.Redirect(w, r, to, http.StatusSeeOther)
	}
}

// localPath returns to when it is a same-site path, else fallback.
func localPath(to, fallback string) string {
	if !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.HasPrefix(to, "/\\") {
		return fallback
	}
	return to
}

func checkbox(r *http.Request, name string) bool {
	switch r.FormValue(name) {
	case "on", "true", "1":
		return true
	}
	return false
}
