// Package sparse implements the sparse index contract from spec §4.5: a
// learned sparse vector (term-id → nonnegative weight) store searched by
// dot product, with per-document model-version tracking.
package sparse

import (
	"sort"
	"sync"

	"neo-alexandria/internal/domain/shared"
)

// Vector is a sparse term-id→weight map.
type Vector map[string]float64

// Dot computes the dot product of two sparse vectors.
func (v Vector) Dot(other Vector) float64 {
	small, large := v, other
	if len(other) < len(v) {
		small, large = other, v
	}
	var sum float64
	for term, w := range small {
		sum += w * large[term]
	}
	return sum
}

type entry struct {
	vector       Vector
	modelVersion string
}

// Result is a single sparse hit.
type Result struct {
	ID    shared.ID
	Score float64
}

// Index is a thread-safe in-memory sparse (dot-product) index.
type Index struct {
	mu   sync.RWMutex
	docs map[shared.ID]entry
}

func NewIndex() *Index {
	return &Index{docs: make(map[shared.ID]entry)}
}

// Upsert stores a document's sparse vector and the model version that
// produced it.
func (idx *Index) Upsert(id shared.ID, vector Vector, modelVersion string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs[id] = entry{vector: vector, modelVersion: modelVersion}
}

func (idx *Index) Delete(id shared.ID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.docs, id)
}

// Search ranks documents by dot product against query. It does not compare
// model versions and emits no warning when documents were stamped under a
// different version than the query; ModelVersion and Available expose the
// stamped versions.
func (idx *Index) Search(query Vector, limit int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]Result, 0, len(idx.docs))
	for id, e := range idx.docs {
		score := e.vector.Dot(query)
		if score > 0 {
			results = append(results, Result{ID: id, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// ModelVersion returns the stamped model version for a document, and
// whether the document is present in the index at all.
func (idx *Index) ModelVersion(id shared.ID) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.docs[id]
	return e.modelVersion, ok
}

// Available reports whether the index currently holds any documents under
// queryModelVersion.
func (idx *Index) Available(queryModelVersion string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, e := range idx.docs {
		if e.modelVersion == queryModelVersion {
			return true
		}
	}
	return false
}
