package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
	"neo-alexandria/internal/kernel"
)

func TestSearchHandler_SearchFindsIndexedResource(t *testing.T) {
	c := newTestContainer(t)
	id := seedCompletedResource(t, c, "distributed systems consistency and replication")

	ctx := context.Background()
	task := kernel.NewTask(kernel.TaskEmbeddingRegenerate, map[string]any{"resource_id": id.String()}, c.Clock.Now())
	require.NoError(t, c.Dispatch(ctx, task))
	task = kernel.NewTask(kernel.TaskLexicalUpdateIndex, map[string]any{"resource_id": id.String()}, c.Clock.Now())
	require.NoError(t, c.Dispatch(ctx, task))

	h := NewSearchHandler(c, response.NewHandler(zap.NewNop()))
	body := strings.NewReader(`{"text":"distributed systems"}`)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	rr := httptest.NewRecorder()
	h.Search(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.SearchResponse
	decodeBody(t, rr, &out)
	found := false
	for _, res := range out.Results {
		if res.ID == id.String() {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSearchHandler_CompareMethodsReturnsLexicalLane(t *testing.T) {
	c := newTestContainer(t)
	id := seedCompletedResource(t, c, "quantum computing and entanglement")
	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, kernel.NewTask(kernel.TaskEmbeddingRegenerate, map[string]any{"resource_id": id.String()}, c.Clock.Now())))
	require.NoError(t, c.Dispatch(ctx, kernel.NewTask(kernel.TaskLexicalUpdateIndex, map[string]any{"resource_id": id.String()}, c.Clock.Now())))

	h := NewSearchHandler(c, response.NewHandler(zap.NewNop()))
	req := httptest.NewRequest(http.MethodGet, "/search/compare-methods?query=quantum", nil)
	rr := httptest.NewRecorder()
	h.CompareMethods(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.CompareMethodsResponse
	decodeBody(t, rr, &out)
	assert.NotEmpty(t, out.Lexical)
}

func TestSearchHandler_EvaluateScoresAgainstRelevance(t *testing.T) {
	c := newTestContainer(t)
	id := seedCompletedResource(t, c, "graph theory and network science")
	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, kernel.NewTask(kernel.TaskEmbeddingRegenerate, map[string]any{"resource_id": id.String()}, c.Clock.Now())))
	require.NoError(t, c.Dispatch(ctx, kernel.NewTask(kernel.TaskLexicalUpdateIndex, map[string]any{"resource_id": id.String()}, c.Clock.Now())))

	h := NewSearchHandler(c, response.NewHandler(zap.NewNop()))
	body := strings.NewReader(`{"query":"graph theory","relevance":{"` + id.String() + `":1.0},"k":10}`)
	req := httptest.NewRequest(http.MethodPost, "/search/evaluate", body)
	rr := httptest.NewRecorder()
	h.Evaluate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.EvaluateResponse
	decodeBody(t, rr, &out)
	assert.GreaterOrEqual(t, out.NDCG, 0.0)
}
