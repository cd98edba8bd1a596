package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
	"neo-alexandria/internal/kernel"
)

func TestHealthHandler_Health(t *testing.T) {
	c := newTestContainer(t)
	h := NewHealthHandler(c, response.NewHandler(zap.NewNop()))

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.HealthResponse
	decodeBody(t, rr, &out)
	assert.Equal(t, "ok", out.Status)
}

func TestHealthHandler_Status(t *testing.T) {
	c := newTestContainer(t)
	h := NewHealthHandler(c, response.NewHandler(zap.NewNop()))

	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/monitoring/status", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.MonitoringStatusResponse
	decodeBody(t, rr, &out)
	assert.Equal(t, "ok", out.Status)
	assert.NotNil(t, out.QueueStats)
	assert.NotNil(t, out.CacheStats)
}

func TestHealthHandler_Metrics(t *testing.T) {
	c := newTestContainer(t)
	h := NewHealthHandler(c, response.NewHandler(zap.NewNop()))

	rr := httptest.NewRecorder()
	h.Metrics(rr, httptest.NewRequest(http.MethodGet, "/monitoring/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]any
	decodeBody(t, rr, &out)
	assert.Contains(t, out, "queue_queued")
	assert.Contains(t, out, "cache_hits")
}

func TestHealthHandler_EventsReflectsDispatchedTasks(t *testing.T) {
	c := newTestContainer(t)
	h := NewHealthHandler(c, response.NewHandler(zap.NewNop()))
	id := seedCompletedResource(t, c, "event-producing resource body")

	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, kernel.NewTask(kernel.TaskEmbeddingRegenerate, map[string]any{"resource_id": id.String()}, c.Clock.Now())))

	rr := httptest.NewRecorder()
	h.Events(rr, httptest.NewRequest(http.MethodGet, "/monitoring/events?limit=10", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.MonitoringEventsResponse
	decodeBody(t, rr, &out)
	assert.NotNil(t, out.Events)
}
