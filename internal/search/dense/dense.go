// Package dense implements the dense index contract from spec §4.4: a
// unit-norm vector store with upsert/delete/search(query_vector, limit).
// Two implementations share the Index interface — ExactIndex (brute-force
// cosine, used up to 100k resources per the spec's own threshold) and
// QdrantIndex (approximate nearest-neighbor for larger corpora).
package dense

import (
	"context"
	"math"
	"sort"
	"sync"

	"neo-alexandria/internal/domain/shared"
)

// Result is a single dense hit.
type Result struct {
	ID    shared.ID
	Score float64 // cosine similarity
}

// Index is the shared contract both implementations satisfy.
type Index interface {
	Upsert(ctx context.Context, id shared.ID, vector []float32) error
	Delete(ctx context.Context, id shared.ID) error
	Search(ctx context.Context, query []float32, limit int) ([]Result, error)
	Get(ctx context.Context, id shared.ID) ([]float32, bool, error)
}

// ExactIndex is the brute-force cosine-similarity path, correct for any
// corpus but intended for ≤100k resources per spec §4.4.
type ExactIndex struct {
	mu      sync.RWMutex
	vectors map[shared.ID][]float32
}

func NewExactIndex() *ExactIndex {
	return &ExactIndex{vectors: make(map[shared.ID][]float32)}
}

var _ Index = (*ExactIndex)(nil)

func (idx *ExactIndex) Upsert(_ context.Context, id shared.ID, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[id] = append([]float32(nil), vector...)
	return nil
}

func (idx *ExactIndex) Delete(_ context.Context, id shared.ID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vectors, id)
	return nil
}

func (idx *ExactIndex) Get(_ context.Context, id shared.ID) ([]float32, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	v, ok := idx.vectors[id]
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), v...), true, nil
}

func (idx *ExactIndex) Search(_ context.Context, query []float32, limit int) ([]Result, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]Result, 0, len(idx.vectors))
	for id, v := range idx.vectors {
		results = append(results, Result{ID: id, Score: cosine(query, v)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize L2-normalizes a vector in place, returning it for chaining.
// Vectors are stored unit-norm per spec §8 invariant 1.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
