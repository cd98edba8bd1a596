package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

type fakeNodeProvider struct {
	nodes map[shared.ID]Node
}

func (f *fakeNodeProvider) All(ctx context.Context) ([]Node, error) {
	out := make([]Node, 0, len(f.nodes))
	for _, n := range f.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNodeProvider) Get(ctx context.Context, id shared.ID) (Node, error) {
	return f.nodes[id], nil
}

type fakeStore struct {
	edges map[shared.ID][]Edge
	all   []Edge
}

func newFakeStore() *fakeStore { return &fakeStore{edges: map[shared.ID][]Edge{}} }

func (f *fakeStore) ReplaceEdgesFor(ctx context.Context, id shared.ID, edges []Edge) error {
	f.edges[id] = edges
	f.all = nil
	for _, es := range f.edges {
		f.all = append(f.all, es...)
	}
	return nil
}

func (f *fakeStore) EdgesFor(ctx context.Context, id shared.ID) ([]Edge, error) {
	return f.edges[id], nil
}

func (f *fakeStore) AllEdges(ctx context.Context) ([]Edge, error) { return f.all, nil }

func (f *fakeStore) DeleteEdgesFor(ctx context.Context, id shared.ID) error {
	delete(f.edges, id)
	return nil
}

func TestScore_CombinesVectorTagsAndClassification(t *testing.T) {
	a := Node{ID: "a", ClassificationCode: "000", Subjects: []string{"x", "y"}, Vector: []float32{1, 0}}
	b := Node{ID: "b", ClassificationCode: "000", Subjects: []string{"x", "z"}, Vector: []float32{1, 0}}

	edge := Score(a, b)

	// cosine=1, jaccard({x,y},{x,z})=1/3, classification match=1
	expected := weightVector*1 + weightTags*(1.0/3.0) + weightClassification*1
	assert.InDelta(t, expected, edge.Score, 1e-9)
}

func TestScore_NoOverlapNoClassMatch(t *testing.T) {
	a := Node{ID: "a", ClassificationCode: "000", Vector: []float32{1, 0}}
	b := Node{ID: "b", ClassificationCode: "100", Vector: []float32{0, 1}}

	edge := Score(a, b)

	assert.InDelta(t, 0, edge.Score, 1e-9)
}

func TestEngine_RecomputeFor_DropsEdgesBelowThreshold(t *testing.T) {
	nodes := &fakeNodeProvider{nodes: map[shared.ID]Node{
		"a": {ID: "a", Vector: []float32{1, 0}},
		"b": {ID: "b", Vector: []float32{1, 0}}, // identical, strong edge
		"c": {ID: "c", Vector: []float32{0, 1}}, // orthogonal, weak edge
	}}
	store := newFakeStore()
	engine := NewEngine(nodes, store, DefaultWeights)

	err := engine.RecomputeFor(context.Background(), "a")
	require.NoError(t, err)

	edges, err := store.EdgesFor(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, shared.ID("b"), edges[0].B)
}

func TestEngine_Neighbors_TieBreakByVectorThenID(t *testing.T) {
	store := newFakeStore()
	store.edges["a"] = []Edge{
		{A: "a", B: "z", Score: 0.5, Vector: 0.5},
		{A: "a", B: "y", Score: 0.5, Vector: 0.9},
	}
	engine := NewEngine(&fakeNodeProvider{}, store, DefaultWeights)

	neighbors, err := engine.Neighbors(context.Background(), "a", 10)

	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, shared.ID("y"), neighbors[0].ID) // higher vector component wins the tie
	assert.Equal(t, shared.ID("z"), neighbors[1].ID)
}

func TestEngine_RemoveNode_DeletesIncidentEdges(t *testing.T) {
	store := newFakeStore()
	store.edges["a"] = []Edge{{A: "a", B: "b", Score: 0.9}}
	engine := NewEngine(&fakeNodeProvider{}, store, DefaultWeights)

	err := engine.RemoveNode(context.Background(), "a")

	require.NoError(t, err)
	edges, _ := store.EdgesFor(context.Background(), "a")
	assert.Empty(t, edges)
}

func TestEngine_OverviewQuery_RespectsVectorThresholdAndLimit(t *testing.T) {
	store := &fakeStore{all: []Edge{
		{A: "a", B: "b", Score: 0.9, Vector: 0.9},
		{A: "c", B: "d", Score: 0.8, Vector: 0.1}, // below threshold
		{A: "e", B: "f", Score: 0.7, Vector: 0.7},
	}}
	engine := NewEngine(&fakeNodeProvider{}, store, DefaultWeights)

	overview, err := engine.OverviewQuery(context.Background(), 10, 0.5)

	require.NoError(t, err)
	assert.Len(t, overview.Edges, 2)
	assert.Len(t, overview.Nodes, 4)
}
