package hybrid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/search/dense"
	"neo-alexandria/internal/search/lexical"
	"neo-alexandria/internal/search/sparse"
)

type fakeEmbedder struct {
	denseErr  error
	sparseErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.denseErr != nil {
		return nil, f.denseErr
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedSparse(ctx context.Context, text string) (map[string]float32, error) {
	if f.sparseErr != nil {
		return nil, f.sparseErr
	}
	return map[string]float32{"golang": 1}, nil
}

type fakeMetadataProvider struct {
	views map[shared.ID]ResourceView
}

func (f *fakeMetadataProvider) Get(ctx context.Context, ids []shared.ID) (map[shared.ID]ResourceView, error) {
	out := make(map[shared.ID]ResourceView, len(ids))
	for _, id := range ids {
		if v, ok := f.views[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T) (*Engine, *lexical.Index, dense.Index, *sparse.Index) {
	t.Helper()
	lex := lexical.NewIndex(lexical.DefaultFieldWeights)
	lex.Upsert("r1", lexical.Document{Title: "golang concurrency patterns"})
	lex.Upsert("r2", lexical.Document{Title: "python web frameworks"})

	den := dense.NewExactIndex()
	require.NoError(t, den.Upsert(context.Background(), "r1", []float32{1, 0}))
	require.NoError(t, den.Upsert(context.Background(), "r2", []float32{0, 1}))

	spr := sparse.NewIndex()
	spr.Upsert("r1", sparse.Vector{"golang": 1}, "v1")

	metadata := &fakeMetadataProvider{views: map[shared.ID]ResourceView{
		"r1": {ID: "r1", Title: "golang concurrency patterns", Type: "article"},
		"r2": {ID: "r2", Title: "python web frameworks", Type: "article"},
	}}

	engine := NewEngine(lex, den, spr, &fakeEmbedder{}, nil, metadata, Config{}, nil)
	return engine, lex, den, spr
}

func TestEngine_Search_ReturnsResultsAcrossAllThreeMethods(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "golang", 10, 0, Filters{}, false, false)

	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, shared.ID("r1"), resp.Results[0].ID)
}

func TestEngine_Search_SparseCollapseWhenEmbedFails(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	engine.embedder = &fakeEmbedder{sparseErr: errors.New("model unavailable")}

	resp, err := engine.Search(context.Background(), "golang", 10, 0, Filters{}, false, false)

	require.NoError(t, err)
	assert.True(t, resp.Diagnostics.SparseCollapsed)
	assert.Contains(t, resp.Diagnostics.RetrieverFailures, "sparse")
}

func TestEngine_Search_AllRetrieversFailing(t *testing.T) {
	lex := lexical.NewIndex(lexical.DefaultFieldWeights)
	den := dense.NewExactIndex()
	spr := sparse.NewIndex()
	metadata := &fakeMetadataProvider{views: map[shared.ID]ResourceView{}}
	engine := NewEngine(lex, den, spr, &fakeEmbedder{denseErr: errors.New("down"), sparseErr: errors.New("down")}, nil, metadata, Config{}, nil)

	resp, err := engine.Search(context.Background(), "nothing indexed", 10, 0, Filters{}, false, false)

	require.NoError(t, err)
	assert.True(t, resp.Diagnostics.AllRetrieversFailed)
	assert.Empty(t, resp.Results)
}

func TestEngine_Search_FiltersExcludeNonMatchingResults(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "golang", 10, 0, Filters{Type: "nonexistent-type"}, false, false)

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
}

func TestEngine_Search_PaginatesWithOffset(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "golang python", 1, 1, Filters{}, false, false)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Results), 1)
}
