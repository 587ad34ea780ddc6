package model

import "time"

// Session is a server-side login record. ID is the SHA-256 hex digest of the
// token held by the client; the raw token is never stored.
type Session struct {
	ID         string    `json:"-"`
	UserID     string    `json:"user_id"`
	RememberMe bool      `json:"remember_me"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
