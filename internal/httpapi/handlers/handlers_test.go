package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/config"
	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/ingestion"
	"neo-alexandria/internal/kernel"
	"neo-alexandria/internal/store/memory"
)

// stubFetchGateway stands in for the container's real HTTPFetchGateway in
// tests, so exercising the create-resource handler never makes an actual
// network call.
type stubFetchGateway struct {
	body        []byte
	contentType string
}

func (s stubFetchGateway) Fetch(_ context.Context, _ string) ([]byte, string, error) {
	return s.body, s.contentType, nil
}

// newTestContainerWithStubFetch builds a container whose Ingestion
// orchestrator fetches from an in-memory stub rather than the network,
// for handler tests that exercise POST /resources end to end.
func newTestContainerWithStubFetch(t *testing.T, body string) *app.Container {
	t.Helper()
	c := newTestContainer(t)
	uowStore := memory.NewStore(c.Clock)
	c.Ingestion = ingestion.NewOrchestrator(
		c.ResourceRepo,
		func(_ context.Context) kernel.UnitOfWork { return memory.NewUnitOfWork(uowStore) },
		c.Bus, c.Blobs, stubFetchGateway{body: []byte(body), contentType: "text/plain"}, c.Extractor, c.Queue, c.Clock, zap.NewNop(),
	)
	return c
}

func testConfig() config.Config {
	return config.Config{
		Graph:              config.Graph{WeightVector: 0.6, WeightTags: 0.25, WeightClassification: 0.15, MinEdgeThreshold: 0.2},
		Search:             config.Search{DefaultHybridWeight: 0.5, RRFK: 60, KRetrieve: 200},
		Cache:              config.Cache{EmbeddingCacheSize: 100},
		Quality:            config.Quality{WeightAccuracy: 0.3, WeightCompleteness: 0.25, WeightConsistency: 0.2, WeightTimeliness: 0.15, WeightRelevance: 0.1},
		EmbeddingModelName: "minilm-l6-v2",
	}
}

func newTestContainer(t *testing.T) *app.Container {
	t.Helper()
	return app.NewEmbeddedContainer(testConfig(), zap.NewNop())
}

func seedCompletedResource(t *testing.T, c *app.Container, body string) shared.ID {
	t.Helper()
	ctx := context.Background()
	res, err := resource.NewResource("https://example.com/paper", "A Paper", c.Clock)
	require.NoError(t, err)
	require.NoError(t, c.ResourceRepo.Save(ctx, res))
	id := res.ID()
	require.NoError(t, c.Blobs.Put(ctx, "resources/"+id.String()+"/archive.txt", []byte(body), "text/plain"))
	require.NoError(t, res.Transition(resource.StatusProcessing, c.Clock))
	res.SetVectors(true, true, "resources/"+id.String()+"/archive.txt", "minilm-l6-v2", c.Clock)
	require.NoError(t, res.Transition(resource.StatusCompleted, c.Clock))
	require.NoError(t, c.ResourceRepo.Save(ctx, res))
	return id
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
