package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/samber/oops"

	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const (
	SessionLifetime    = 30 * 24 * time.Hour
	RememberMeLifetime = 90 * 24 * time.Hour

	tokenBytes = 32
)

// Result is a validated session together with its user. Fresh is set when
// the session's expiry was extended and the cookie must be reissued.
type Result struct {
	Session *model.Session
	User    *model.User
	Fresh   bool
}

// Manager owns the session lifecycle. Tokens are returned to the caller
// once; storage only ever sees their SHA-256 digest.
type Manager struct {
	sessions *store.SessionStore
	users    *store.UserStore
	now      func() time.Time
}

func NewManager(sessions *store.SessionStore, users *store.UserStore) *Manager {
	return &Manager{
		sessions: sessions,
		users:    users,
		now:      time.Now,
	}
}

// Lifetime is the sliding window a session is renewed to.
func Lifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return RememberMeLifetime
	}
	return SessionLifetime
}

// Create starts a session for userID and returns the client token.
func (m *Manager) Create(ctx context.Context, userID string, rememberMe bool) (string, *model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}

	now := m.now()
	sess := &model.Session{
		ID:         hashToken(token),
		UserID:     userID,
		RememberMe: rememberMe,
		ExpiresAt:  now.Add(Lifetime(rememberMe)),
		CreatedAt:  now,
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return "", nil, oops.Code("SESSION_CREATE_FAILED").With("user_id", userID).Wrap(err)
	}

	metrics.SessionsCreated.Inc()
	return token, sess, nil
}

// Validate resolves token to a live session. Unknown, malformed and expired
// tokens yield (nil, nil); expired sessions are deleted on sight.
func (m *Manager) Validate(ctx context.Context, token string) (*Result, error) {
	if !wellFormed(token) {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	id := hashToken(token)
	sess, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("error").Inc()
		return nil, oops.Code("SESSION_LOOKUP_FAILED").Wrap(err)
	}
	if sess == nil {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	now := m.now()
	if !now.Before(sess.ExpiresAt) {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		if err := m.sessions.Delete(ctx, id); err != nil {
			return nil, oops.Code("SESSION_DELETE_FAILED").Wrap(err)
		}
		return nil, nil
	}

	user, err := m.users.GetByID(ctx, sess.UserID)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("error").Inc()
		return nil, oops.Code("SESSION_USER_LOOKUP_FAILED").With("user_id", sess.UserID).Wrap(err)
	}
	if user == nil {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	res := &Result{Session: sess, User: user}

	lifetime := Lifetime(sess.RememberMe)
	if sess.ExpiresAt.Sub(now) < lifetime/2 {
		expires := now.Add(lifetime).UTC().Truncate(time.Second)
		if err := m.sessions.Extend(ctx, id, expires); err != nil {
			metrics.SessionValidations.WithLabelValues("error").Inc()
			return nil, oops.Code("SESSION_RENEW_FAILED").Wrap(err)
		}
		sess.ExpiresAt = expires
		res.Fresh = true
		metrics.SessionValidations.WithLabelValues("renewed").Inc()
		return res, nil
	}

	metrics.SessionValidations.WithLabelValues("valid").Inc()
	return res, nil
}

// Invalidate deletes one session. Unknown IDs are not an error.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").Wrap(err)
	}
	return nil
}

// InvalidateUser deletes every session belonging to userID.
func (m *Manager) InvalidateUser(ctx context.Context, userID string) error {
	if err := m.sessions.DeleteByUser(ctx, userID); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").With("user_id", userID).Wrap(err)
	}
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_TOKEN_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func wellFormed(token string) bool {
	if len(token) != tokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
