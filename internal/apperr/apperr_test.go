package apperr_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/hearth/internal/apperr"
)

func TestKindsMapToStatus(t *testing.T) {
	cases := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.Validation, http.StatusBadRequest},
		{apperr.NotFound, http.StatusNotFound},
		{apperr.Forbidden, http.StatusForbidden},
		{apperr.Conflict, http.StatusConflict},
		{apperr.Guard, http.StatusBadRequest},
		{apperr.Unauthenticated, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := apperr.New(tc.kind, "nope")
			assert.Equal(t, tc.kind, apperr.KindOf(err))
			assert.Equal(t, tc.status, apperr.Status(err))
			assert.Equal(t, "nope", apperr.Message(err))
		})
	}
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("disk on fire")

	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
	assert.NotContains(t, apperr.Message(err), "disk")
}

func TestWrapKeepsDomainKind(t *testing.T) {
	inner := apperr.New(apperr.Guard, "Cannot leave home as sole owner.")
	err := apperr.Wrap(fmt.Errorf("leave: %w", inner), "leave home", "home_id", "h1")

	assert.True(t, apperr.Is(err, apperr.Guard))
	assert.Equal(t, "Cannot leave home as sole owner.", apperr.Message(err))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	err := apperr.Wrap(errors.New("constraint failed"), "create home")

	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Equal(t, "Internal server error", apperr.Message(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, apperr.Wrap(nil, "noop"))
	assert.False(t, apperr.Is(nil, apperr.Internal))
}

func TestLogIncludesCodeAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	apperr.Log(logger, "operation failed", apperr.Wrap(errors.New("boom"), "join home", "user_id", "u1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "INTERNAL", entry["code"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok, "context attribute missing: %v", entry)
	assert.Equal(t, "join home", ctx["op"])
	assert.Equal(t, "u1", ctx["user_id"])
}

func TestLogStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	apperr.Log(logger, "operation failed", errors.New("standard error"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}
