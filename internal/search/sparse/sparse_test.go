package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector_Dot(t *testing.T) {
	a := Vector{"x": 2, "y": 3}
	b := Vector{"x": 4, "z": 5}

	assert.Equal(t, 8.0, a.Dot(b))
}

func TestIndex_Search_RanksByDotProduct(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("high", Vector{"a": 1, "b": 1}, "v1")
	idx.Upsert("low", Vector{"a": 0.1}, "v1")

	results := idx.Search(Vector{"a": 1, "b": 1}, 10)

	assert.Len(t, results, 2)
	assert.Equal(t, "high", string(results[0].ID))
}

func TestIndex_Available_ChecksModelVersion(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("doc1", Vector{"a": 1}, "v1")

	assert.True(t, idx.Available("v1"))
	assert.False(t, idx.Available("v2"))
}

func TestIndex_Delete(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("doc1", Vector{"a": 1}, "v1")
	idx.Delete("doc1")

	_, ok := idx.ModelVersion("doc1")
	assert.False(t, ok)
}
