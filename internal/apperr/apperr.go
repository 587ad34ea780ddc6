// Package apperr classifies domain failures so transports can map them to
// status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

type Kind string

const (
	Validation      Kind = "VALIDATION"
	NotFound        Kind = "NOT_FOUND"
	Forbidden       Kind = "FORBIDDEN"
	Conflict        Kind = "CONFLICT"
	Guard           Kind = "GUARD_VIOLATION"
	Unauthenticated Kind = "UNAUTHENTICATED"
	Internal        Kind = "INTERNAL"
)

const internalMessage = "Internal server error"

var statuses = map[Kind]int{
	Validation:      http.StatusBadRequest,
	NotFound:        http.StatusNotFound,
	Forbidden:       http.StatusForbidden,
	Conflict:        http.StatusConflict,
	Guard:           http.StatusBadRequest,
	Unauthenticated: http.StatusUnauthorized,
	Internal:        http.StatusInternalServerError,
}

// New returns a domain error whose message is safe to show to users.
func New(kind Kind, msg string) error {
	return oops.Code(string(kind)).Errorf("%s", msg)
}

// Wrap marks err as an internal failure of op. Domain errors keep their kind.
func Wrap(err error, op string, kv ...any) error {
	return oops.Code(string(Internal)).With("op", op).With(kv...).Wrap(err)
}

// KindOf reports the kind of err. Errors not created by New are Internal.
func KindOf(err error) Kind {
	if oe, ok := domainError(err); ok {
		return codeKind(oe.Code())
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func Status(err error) int {
	return statuses[KindOf(err)]
}

// Message is the user-facing text for err. Internal failures never leak
// their cause.
func Message(err error) string {
	if oe, ok := domainError(err); ok {
		return oe.Error()
	}
	return internalMessage
}

// Log writes err at error level with its code and context attributes.
func Log(logger *slog.Logger, msg string, err error) {
	oe, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}
	attrs := []any{"error", oe.Error()}
	if code := oe.Code(); code != nil && fmt.Sprint(code) != "" {
		attrs = append(attrs, "code", fmt.Sprint(code))
	}
	if ctx := oe.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	logger.Error(msg, attrs...)
}

// domainError finds the innermost oops error in the chain carrying a
// non-internal code.
func domainError(err error) (oops.OopsError, bool) {
	var found oops.OopsError
	ok := false
	for e := err; e != nil; e = errors.Unwrap(e) {
		oe, isOops := e.(oops.OopsError)
		if !isOops {
			continue
		}
		if k := codeKind(oe.Code()); k != Internal {
			found, ok = oe, true
		}
	}
	return found, ok
}

func codeKind(code any) Kind {
	k := Kind(fmt.Sprint(code))
	if _, known := statuses[k]; known {
		return k
	}
	return Internal
}
