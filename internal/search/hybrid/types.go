// Package hybrid implements the three-way hybrid search engine, spec §4.6:
// parallel lexical/dense/sparse retrieval, Reciprocal Rank Fusion with
// adaptive query-based weighting, optional cross-encoder reranking,
// post-retrieval filtering, faceting, snippeting, and offline evaluation.
package hybrid

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/shared"
)

// Filters narrow the fused-sorted result list before pagination (spec §4.6).
type Filters struct {
	ClassificationCode string
	Language            string
	Type                string
	ReadStatus          string
	MinQuality          *float64
	CreatedFrom         *time.Time
	CreatedTo           *time.Time
	UpdatedFrom         *time.Time
	UpdatedTo           *time.Time
	SubjectAny          []string
	SubjectAll          []string
}

// ResourceView is the slice of resource metadata the engine needs for
// filtering, faceting, and snippeting — supplied by a MetadataProvider so
// the search package stays independent of the store dialect in use.
type ResourceView struct {
	ID                  shared.ID
	Title               string
	Description         string
	Body                string
	ClassificationCode  string
	Language            string
	Type                string
	ReadStatus          string
	Quality             float64
	Subjects            []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// MetadataProvider resolves resource views by id in bulk, for the fused
// candidate pool only (never the whole corpus).
type MetadataProvider interface {
	Get(ctx context.Context, ids []shared.ID) (map[shared.ID]ResourceView, error)
}

// Result is one ranked, paginated hit.
type Result struct {
	ID      shared.ID
	Score   float64
	Snippet string
}

// Facets are counts over the filtered-sorted result list, except Subject,
// which counts the fused candidate pool (at most 1000) before filtering;
// see computeFacets (spec §4.6).
type Facets struct {
	ClassificationCode map[string]int
	Type                map[string]int
	Language            map[string]int
	ReadStatus          map[string]int
	Subject             map[string]int
}

// Diagnostics reports phase timings and soft-failure flags (spec §4.6).
type Diagnostics struct {
	PhaseTimingsMs       map[string]float64
	RetrieverFailures    []string
	AllRetrieversFailed  bool
	MethodContributions  map[string]float64
	WeightsUsed          map[string]float64
	RerankerFailed       bool
	SparseCollapsed      bool
	FacetError           bool
}

// Response is the full search(...) return value.
type Response struct {
	Results     []Result
	Total       int
	Facets      Facets
	Diagnostics Diagnostics
}

// Metrics is the offline evaluation output, spec §4.6's evaluate(...).
type Metrics struct {
	NDCG      float64
	Recall    float64
	Precision float64
	MRR       float64
}
