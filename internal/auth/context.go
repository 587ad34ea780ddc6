package auth

import (
	"context"

	"github.com/dukerupert/hearth/internal/model"
)

type contextKey struct{}

// Identity is the authenticated caller of a request. It carries no role:
// home-scoped permissions are looked up per operation.
type Identity struct {
	User    *model.User
	Session *model.Session
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.User == nil {
		return Identity{}, false
	}
	return id, true
}

// UserID returns the authenticated user's ID, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.User.ID
}

func SessionID(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok || id.Session == nil {
		return ""
	}
	return id.Session.ID
}
