package dErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_NilYieldsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
}

func TestIs_MatchesThroughChain(t *testing.T) {
	base := New(CodeConflict, "dispute already open")
	wrapped := fmt.Errorf("open dispute: %w", base)

	assert.True(t, Is(wrapped, CodeConflict))
	assert.False(t, Is(wrapped, CodeNotFound))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeForbidden, CodeOf(New(CodeForbidden, "upgrade required")))
}

func TestMessageOf_NeverLeaksInternals(t *testing.T) {
	assert.Equal(t, "internal error", MessageOf(errors.New("pq: connection refused")))
	assert.Equal(t, "upgrade required", MessageOf(New(CodeForbidden, "upgrade required")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeInternal:           http.StatusInternalServerError,
		Code("something_else"): http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}

func TestUnwrap_PreservesCause(t *testing.T) {
	cause := errors.New("unique_violation")
	err := Wrap(cause, CodeConflict, "duplicate request")

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, CodeConflict))
}
