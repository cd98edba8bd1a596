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

func TestGraphHandler_NeighborsAfterGraphUpdate(t *testing.T) {
	c := newTestContainer(t)
	a := seedCompletedResource(t, c, "distributed consensus and replication protocols")
	b := seedCompletedResource(t, c, "distributed consensus and replication systems")

	ctx := context.Background()
	for _, id := range []string{a.String(), b.String()} {
		require.NoError(t, c.Dispatch(ctx, kernel.NewTask(kernel.TaskEmbeddingRegenerate, map[string]any{"resource_id": id}, c.Clock.Now())))
	}
	for _, id := range []string{a.String(), b.String()} {
		require.NoError(t, c.Dispatch(ctx, kernel.NewTask(kernel.TaskGraphUpdateEdges, map[string]any{"resource_id": id}, c.Clock.Now())))
	}

	h := NewGraphHandler(c, response.NewHandler(zap.NewNop()))
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/graph/resource/"+a.String()+"/neighbors", nil), "id", a.String())
	rr := httptest.NewRecorder()
	h.Neighbors(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.NeighborsResponse
	decodeBody(t, rr, &out)
	assert.Equal(t, a.String(), out.ResourceID)
}

func TestGraphHandler_Overview(t *testing.T) {
	c := newTestContainer(t)
	h := NewGraphHandler(c, response.NewHandler(zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/graph/overview", nil)
	rr := httptest.NewRecorder()
	h.Overview(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.OverviewResponse
	decodeBody(t, rr, &out)
	assert.NotNil(t, out.Nodes)
}
