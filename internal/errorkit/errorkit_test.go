package errorkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageIncludesCauseWhenWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap(Upstream, "fetch_failed", "could not fetch url", cause)
	assert.Contains(t, e.Error(), "connection refused")
	assert.Contains(t, e.Error(), "could not fetch url")
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestError_MessageOmitsCauseWhenAbsent(t *testing.T) {
	e := New(Validation, "bad_input", "field is required")
	assert.NotContains(t, e.Error(), "<nil>")
}

func TestAs_PassesThroughExistingError(t *testing.T) {
	original := New(Conflict, "taxonomy_cycle", "cannot move node under itself")
	wrapped := fmt.Errorf("operation failed: %w", original)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, Conflict, got.Kind)
	assert.Equal(t, "taxonomy_cycle", got.Code)
}

func TestAs_ClassifiesUnknownErrorAsInternal(t *testing.T) {
	got := As(errors.New("some unrelated failure"))
	require.NotNil(t, got)
	assert.Equal(t, Internal, got.Kind)
	assert.Equal(t, "unclassified", got.Code)
}

func TestAs_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, As(nil))
}

func TestWithRetryable_SetsFlag(t *testing.T) {
	e := New(Upstream, "fetch_failed", "timed out").WithRetryable(true)
	assert.True(t, e.Retryable)
}

func TestConvenienceConstructors_SetExpectedKinds(t *testing.T) {
	assert.Equal(t, NotFound, NotFoundf("missing %s", "id").Kind)
	assert.Equal(t, Validation, Validationf("bad %s", "field").Kind)
	assert.Equal(t, Conflict, Conflictf("code", "conflict %s", "x").Kind)
	assert.Equal(t, Internal, Internalf("boom").Kind)
}
