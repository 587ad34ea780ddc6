package websocket

import (
	"context"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/model"
)

// Authorizer checks that a user belongs to a home.
type Authorizer interface {
	Authorize(ctx context.Context, userID, homeID string, requireOwner bool) (*model.HomeMembership, error)
}

// HandleWebSocket upgrades members of the {homeID} path value to a live
// event stream for that home. It expects an authenticated request.
func HandleWebSocket(hub *Hub, authz Authorizer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		homeID := r.PathValue("homeID")
		if _, err := authz.Authorize(r.Context(), userID, homeID, false); err != nil {
			if apperr.KindOf(err) == apperr.Internal {
				apperr.Log(logger, "websocket authorize", err)
			}
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, homeID, userID)
		client.Run(r.Context())
	}
}
