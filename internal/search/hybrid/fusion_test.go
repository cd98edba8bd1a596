package hybrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

func TestReciprocalRankFusion_TopRankAcrossMethodsWins(t *testing.T) {
	lists := map[string]rankedList{
		"lexical": {"a", "b", "c"},
		"dense":   {"a", "c", "b"},
	}
	w := map[string]float64{"lexical": 0.5, "dense": 0.5}

	fused := reciprocalRankFusion(lists, w)

	require.NotEmpty(t, fused)
	assert.Equal(t, shared.ID("a"), fused[0].ID)
}

func TestReciprocalRankFusion_MissingFromOneListStillScores(t *testing.T) {
	lists := map[string]rankedList{
		"lexical": {"a"},
		"dense":   {"b"},
	}
	w := map[string]float64{"lexical": 0.6, "dense": 0.4}

	fused := reciprocalRankFusion(lists, w)

	require.Len(t, fused, 2)
	// a only appears in lexical (higher weight) at rank 1; b only in dense at rank 1.
	assert.Equal(t, shared.ID("a"), fused[0].ID)
}

func TestMethodContributions_NormalizesToShares(t *testing.T) {
	hits := []fusedHit{
		{ID: "a", Score: 1.0, Contribution: map[string]float64{"lexical": 0.6, "dense": 0.4}},
	}

	contrib := methodContributions(hits)

	assert.InDelta(t, 0.6, contrib["lexical"], 1e-9)
	assert.InDelta(t, 0.4, contrib["dense"], 1e-9)
}

func TestAnalyzeQuery_SingleHighFrequencyTermFavorsLexical(t *testing.T) {
	idx := NewTestLexicalIndexWithTerm(t, "golang", 6)

	w := analyzeQuery("golang", idx)

	assert.Equal(t, 0.5, w.Lexical)
}

func TestAnalyzeQuery_ShortPhraseIsBalanced(t *testing.T) {
	idx := NewTestLexicalIndexWithTerm(t, "unrelated", 1)

	w := analyzeQuery("quick brown fox", idx)

	assert.Equal(t, 0.35, w.Lexical)
	assert.Equal(t, 0.35, w.Dense)
}

func TestAnalyzeQuery_LongNaturalLanguageFavorsDense(t *testing.T) {
	idx := NewTestLexicalIndexWithTerm(t, "unrelated", 1)

	w := analyzeQuery("what is the best way to learn concurrency patterns in go", idx)

	assert.Equal(t, 0.45, w.Dense)
}

func TestWeights_Renormalize_DropsSparseAndRescales(t *testing.T) {
	w := weights{Lexical: 0.35, Dense: 0.35, Sparse: 0.30}

	renorm := w.renormalize(true)

	assert.InDelta(t, 1.0, renorm.Lexical+renorm.Dense, 1e-9)
	assert.Equal(t, 0.0, renorm.Sparse)
}
