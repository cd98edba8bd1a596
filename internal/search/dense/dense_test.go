package dense

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactIndex_Search_RanksByCosineSimilarity(t *testing.T) {
	idx := NewExactIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "same", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "orthogonal", []float32{0, 1}))

	results, err := idx.Search(ctx, []float32{1, 0}, 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "same", string(results[0].ID))
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestExactIndex_Delete_RemovesVector(t *testing.T) {
	idx := NewExactIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "doc1", []float32{1, 0}))
	require.NoError(t, idx.Delete(ctx, "doc1"))

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExactIndex_Search_RespectsLimit(t *testing.T) {
	idx := NewExactIndex()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Upsert(ctx, "doc", []float32{1, 0}))
	}

	results, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestNormalize_ProducesUnitVector(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 1.0, float64(v[0]*v[0]+v[1]*v[1]), 1e-6)
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	v := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, v)
}
