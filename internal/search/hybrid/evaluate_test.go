package hybrid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"neo-alexandria/internal/domain/shared"
)

func TestEvaluate_PerfectRankingScoresOne(t *testing.T) {
	ranked := []shared.ID{"a", "b", "c"}
	relevance := map[shared.ID]float64{"a": 1, "b": 1, "c": 1}

	m := Evaluate(ranked, relevance, 3)

	assert.InDelta(t, 1.0, m.NDCG, 1e-9)
	assert.InDelta(t, 1.0, m.Recall, 1e-9)
	assert.InDelta(t, 1.0, m.Precision, 1e-9)
	assert.InDelta(t, 1.0, m.MRR, 1e-9)
}

func TestEvaluate_FirstRelevantAtRankTwoHalvesMRR(t *testing.T) {
	ranked := []shared.ID{"irrelevant", "relevant"}
	relevance := map[shared.ID]float64{"relevant": 1}

	m := Evaluate(ranked, relevance, 2)

	assert.InDelta(t, 0.5, m.MRR, 1e-9)
}

func TestEvaluate_NoRelevantDocsZeroesOutMetrics(t *testing.T) {
	ranked := []shared.ID{"a", "b"}
	relevance := map[shared.ID]float64{}

	m := Evaluate(ranked, relevance, 2)

	assert.Equal(t, 0.0, m.NDCG)
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.MRR)
}
