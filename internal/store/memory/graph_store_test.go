package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/graph"
)

func TestGraphStore_ReplaceEdgesFor_IsVisibleFromBothEndpoints(t *testing.T) {
	s := NewGraphStore()
	ctx := context.Background()

	require.NoError(t, s.ReplaceEdgesFor(ctx, "a", []graph.Edge{{A: "a", B: "b", Score: 0.5}}))

	aEdges, err := s.EdgesFor(ctx, "a")
	require.NoError(t, err)
	require.Len(t, aEdges, 1)

	bEdges, err := s.EdgesFor(ctx, "b")
	require.NoError(t, err)
	require.Len(t, bEdges, 1)
}

func TestGraphStore_ReplaceEdgesFor_DropsStaleEdges(t *testing.T) {
	s := NewGraphStore()
	ctx := context.Background()

	require.NoError(t, s.ReplaceEdgesFor(ctx, "a", []graph.Edge{{A: "a", B: "b", Score: 0.5}}))
	require.NoError(t, s.ReplaceEdgesFor(ctx, "a", nil))

	bEdges, err := s.EdgesFor(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, bEdges)
}

func TestGraphStore_AllEdges_DeduplicatesUndirectedPairs(t *testing.T) {
	s := NewGraphStore()
	ctx := context.Background()
	require.NoError(t, s.ReplaceEdgesFor(ctx, "a", []graph.Edge{{A: "a", B: "b", Score: 0.5}}))

	all, err := s.AllEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGraphStore_DeleteEdgesFor_RemovesFromNeighbors(t *testing.T) {
	s := NewGraphStore()
	ctx := context.Background()
	require.NoError(t, s.ReplaceEdgesFor(ctx, "a", []graph.Edge{{A: "a", B: "b", Score: 0.5}}))

	require.NoError(t, s.DeleteEdgesFor(ctx, "a"))

	bEdges, err := s.EdgesFor(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, bEdges)
}
