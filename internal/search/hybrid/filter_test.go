package hybrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"neo-alexandria/internal/domain/shared"
)

func baseView() ResourceView {
	return ResourceView{
		ID: "r1", ClassificationCode: "005", Language: "en", Type: "article",
		ReadStatus: "unread", Quality: 0.7, Subjects: []string{"go", "concurrency"},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMatchesFilters_ClassificationCodeMismatchExcludes(t *testing.T) {
	assert.False(t, matchesFilters(baseView(), Filters{ClassificationCode: "010"}))
}

func TestMatchesFilters_MinQualityExcludesLowerScores(t *testing.T) {
	min := 0.8
	assert.False(t, matchesFilters(baseView(), Filters{MinQuality: &min}))
}

func TestMatchesFilters_SubjectAnyMatches(t *testing.T) {
	assert.True(t, matchesFilters(baseView(), Filters{SubjectAny: []string{"missing", "go"}}))
}

func TestMatchesFilters_SubjectAllRequiresEveryTerm(t *testing.T) {
	assert.False(t, matchesFilters(baseView(), Filters{SubjectAll: []string{"go", "missing"}}))
	assert.True(t, matchesFilters(baseView(), Filters{SubjectAll: []string{"go", "concurrency"}}))
}

func TestComputeFacets_SubjectFromFusedPoolOthersFromFilteredSorted(t *testing.T) {
	v1 := baseView()
	v2 := baseView()
	v2.ID = "r2"
	v2.ClassificationCode = "010"

	facets := computeFacets([]ResourceView{v1}, []ResourceView{v1, v2})

	assert.Equal(t, 1, facets.ClassificationCode["005"])
	assert.Equal(t, 0, facets.ClassificationCode["010"]) // excluded: not in filteredSorted
	assert.Equal(t, 2, facets.Subject["go"])              // from the fused pool, pre-filter
}

func TestComputeFacets_CapsSubjectPoolAtMax(t *testing.T) {
	pool := make([]ResourceView, maxSubjectFacetPool+5)
	for i := range pool {
		pool[i] = ResourceView{ID: shared.ID("x"), Subjects: []string{"tag"}}
	}

	facets := computeFacets(nil, pool)

	assert.Equal(t, maxSubjectFacetPool, facets.Subject["tag"])
}
