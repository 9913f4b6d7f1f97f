package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSample = New(KindInvariantViolation, "sample.broken", "sample is broken")

func TestIsMatchesByCode(t *testing.T) {
	reworded := errSample.WithMessage("sample 7 is broken")
	wrapped := fmt.Errorf("while saving: %w", reworded)

	assert.ErrorIs(t, wrapped, errSample)
	assert.NotErrorIs(t, wrapped, New(KindInvariantViolation, "sample.other", "other"))
	assert.Equal(t, "sample is broken", errSample.Message, "sentinel must not change")
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := errSample.Wrap(cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "sample is broken: disk full", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "not found", err: New(KindNotFound, "x.not_found", "x"), expected: http.StatusNotFound},
		{name: "invariant", err: errSample, expected: http.StatusUnprocessableEntity},
		{name: "invalid input", err: New(KindInvalidInput, "x.bad", "x"), expected: http.StatusUnprocessableEntity},
		{name: "configuration", err: New(KindConfiguration, "x.cfg", "x"), expected: http.StatusInternalServerError},
		{name: "unauthenticated", err: New(KindUnauthenticated, "x.auth", "x"), expected: http.StatusUnauthorized},
		{name: "forbidden", err: New(KindForbidden, "x.perm", "x"), expected: http.StatusForbidden},
		{name: "wrapped", err: fmt.Errorf("ctx: %w", New(KindNotFound, "y", "y")), expected: http.StatusNotFound},
		{name: "plain error", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, HTTPStatus(tc.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvariantViolation, KindOf(errSample))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
