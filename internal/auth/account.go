package auth

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const (
	msgNameRequired       = "Name is required"
	msgEmailRequired      = "Email is required"
	msgEmailInvalid       = "Invalid email address"
	msgPasswordRequired   = "Password is required"
	msgEmailInUse         = "Email already in use"
	msgInvalidCredentials = "Invalid email or password"
	msgAllFieldsRequired  = "All fields are required"
	msgPasswordMismatch   = "New passwords do not match"
	msgUserNotFound       = "User not found"
	msgCurrentIncorrect   = "Current password is incorrect"
)

// dummyHash is verified against when a login names an unknown email so
// both failure paths cost one argon2 derivation.
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("not-a-real-password")
	return h
})

// Accounts handles signup, login and password changes.
type Accounts struct {
	db       *sql.DB
	users    *store.UserStore
	sessions *store.SessionStore
}

func NewAccounts(db *sql.DB) *Accounts {
	return &Accounts{
		db:       db,
		users:    store.NewUserStore(db),
		sessions: store.NewSessionStore(db),
	}
}

// Signup registers a user. The email is stored lower-cased.
func (a *Accounts) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "":
		return nil, apperr.New(apperr.Validation, msgNameRequired)
	case email == "":
		return nil, apperr.New(apperr.Validation, msgEmailRequired)
	case !strings.Contains(email, "@"):
		return nil, apperr.New(apperr.Validation, msgEmailInvalid)
	case password == "":
		return nil, apperr.New(apperr.Validation, msgPasswordRequired)
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(err, "signup lookup")
	}
	if existing != nil {
		return nil, apperr.New(apperr.Validation, msgEmailInUse)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}
	u, err := a.users.Create(ctx, email, name, hash)
	if store.IsUniqueViolation(err) {
		return nil, apperr.New(apperr.Validation, msgEmailInUse)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "create user")
	}
	return u, nil
}

// Login checks credentials. Unknown emails and wrong passwords fail with
// the same message.
func (a *Accounts) Login(ctx context.Context, email, password string) (*model.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperr.New(apperr.Validation, msgEmailRequired)
	}
	if password == "" {
		return nil, apperr.New(apperr.Validation, msgPasswordRequired)
	}

	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(err, "login lookup")
	}
	if u == nil {
		VerifyPassword(dummyHash(), password)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, apperr.New(apperr.Validation, msgInvalidCredentials)
	}
	if !VerifyPassword(u.HashedPassword, password) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, apperr.New(apperr.Validation, msgInvalidCredentials)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return u, nil
}

// ChangePassword re-hashes the user's password and deletes all of their
// sessions in one transaction. The caller issues a new session afterwards.
func (a *Accounts) ChangePassword(ctx context.Context, userID, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return apperr.New(apperr.Validation, msgAllFieldsRequired)
	}
	if next != confirm {
		return apperr.New(apperr.Validation, msgPasswordMismatch)
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}

	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return apperr.Wrap(err, "get user", "user_id", userID)
	}
	if u == nil {
		return apperr.New(apperr.NotFound, msgUserNotFound)
	}
	if !VerifyPassword(u.HashedPassword, current) {
		return apperr.New(apperr.Validation, msgCurrentIncorrect)
	}

	hash, err := HashPassword(next)
	if err != nil {
		return apperr.Wrap(err, "hash password")
	}
	err = store.InTx(ctx, a.db, func(tx *sql.Tx) error {
		if err := a.users.WithTx(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return a.sessions.WithTx(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return apperr.Wrap(err, "change password", "user_id", userID)
	}
	return nil
}
