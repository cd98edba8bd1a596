package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/errorkit"
)

func TestJSON_WritesBodyAndContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc", body["id"])
}

func TestJSON_NilDataWritesNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandler_Error_MapsKindsToStatus(t *testing.T) {
	h := NewHandler(nil)
	cases := []struct {
		kind   errorkit.Kind
		status int
	}{
		{errorkit.Validation, http.StatusUnprocessableEntity},
		{errorkit.NotFound, http.StatusNotFound},
		{errorkit.Conflict, http.StatusConflict},
		{errorkit.Upstream, http.StatusBadGateway},
		{errorkit.Timeout, http.StatusRequestTimeout},
		{errorkit.Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resources/1", nil)
		h.Error(rec, req, errorkit.New(tc.kind, "some_code", "something went wrong"))

		assert.Equal(t, tc.status, rec.Code, tc.kind)
		var env Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "some_code", env.ErrorCode)
		assert.Equal(t, "something went wrong", env.Detail)
		assert.False(t, env.Timestamp.IsZero())
	}
}

func TestHandler_Error_NilIsNoop(t *testing.T) {
	h := NewHandler(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.Error(rec, req, nil)
	assert.Equal(t, 200, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}
