package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorPassesThroughTypedError(t *testing.T) {
	err := Clone(ErrStaleVersion, "calendar was modified by another actor")
	got := FromError(err)
	assert.Equal(t, "STALE_VERSION", got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
	assert.Equal(t, "calendar was modified by another actor", got.Message)
}

func TestFromErrorWrapsUnknownError(t *testing.T) {
	got := FromError(stderrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrInvalidTransition, "cannot approve a draft")
	assert.Equal(t, "cannot approve a draft", clone.Message)
	assert.Equal(t, "status transition not allowed", ErrInvalidTransition.Message)
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrUpstream.Code, ErrUpstream.Status, "redis unavailable")
	require.ErrorIs(t, err, cause)
}
