package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

type fakeCollaborative struct {
	scores map[shared.ID]float64
	ok     bool
}

func (f *fakeCollaborative) Score(ctx context.Context, userID shared.ID, candidates []shared.ID) (map[shared.ID]float64, bool, error) {
	return f.scores, f.ok, nil
}

func TestRecommend_ExcludesAlreadyInteractedResources(t *testing.T) {
	candidates := []Candidate{
		{ResourceID: "interacted", DenseVector: []float32{1, 0}, Quality: 0.9},
		{ResourceID: "fresh", DenseVector: []float32{1, 0}, Quality: 0.9},
	}
	interactions := []Interaction{{ResourceID: "interacted", At: time.Now()}}

	scored, err := Recommend(context.Background(), "u1", []float32{1, 0}, interactions, candidates, nil, Options{})

	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, shared.ID("fresh"), scored[0].ResourceID)
}

func TestRecommend_FiltersByMinQuality(t *testing.T) {
	candidates := []Candidate{
		{ResourceID: "low", DenseVector: []float32{1, 0}, Quality: 0.1},
		{ResourceID: "high", DenseVector: []float32{1, 0}, Quality: 0.9},
	}

	scored, err := Recommend(context.Background(), "u1", []float32{1, 0}, nil, candidates, nil, Options{MinQuality: 0.5})

	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, shared.ID("high"), scored[0].ResourceID)
}

func TestRecommend_ColdStartDropsCollaborative(t *testing.T) {
	candidates := []Candidate{{ResourceID: "r1", DenseVector: []float32{1, 0}, Quality: 0.5}}
	collab := &fakeCollaborative{scores: map[shared.ID]float64{"r1": 1.0}, ok: true}

	scored, err := Recommend(context.Background(), "u1", []float32{1, 0}, nil, candidates, collab, Options{})

	require.NoError(t, err)
	require.Len(t, scored, 1)
	_, used := scored[0].Contributions[StrategyCollaborative]
	assert.False(t, used) // fewer than 5 interactions: collaborative strategy unavailable
}

func TestRecommend_UsesCollaborativeAfterColdStart(t *testing.T) {
	candidates := []Candidate{{ResourceID: "r1", DenseVector: []float32{1, 0}, Quality: 0.5}}
	interactions := make([]Interaction, 5)
	for i := range interactions {
		interactions[i] = Interaction{ResourceID: shared.ID("other"), At: time.Now()}
	}
	collab := &fakeCollaborative{scores: map[shared.ID]float64{"r1": 1.0}, ok: true}

	scored, err := Recommend(context.Background(), "u1", []float32{1, 0}, interactions, candidates, collab, Options{})

	require.NoError(t, err)
	require.Len(t, scored, 1)
	_, used := scored[0].Contributions[StrategyCollaborative]
	assert.True(t, used)
}

func TestRecommend_ContentOnlyStrategyIgnoresOtherSignals(t *testing.T) {
	candidates := []Candidate{
		{ResourceID: "aligned", DenseVector: []float32{1, 0}, Quality: 0.1, GraphScore: 0},
		{ResourceID: "orthogonal", DenseVector: []float32{0, 1}, Quality: 0.9, GraphScore: 1},
	}

	scored, err := Recommend(context.Background(), "u1", []float32{1, 0}, nil, candidates, nil, Options{Strategy: StrategyContent})

	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, shared.ID("aligned"), scored[0].ResourceID)
}

func TestMMRDiversify_RespectsLimit(t *testing.T) {
	ranked := []Scored{{ResourceID: "a", Score: 0.9}, {ResourceID: "b", Score: 0.8}, {ResourceID: "c", Score: 0.7}}
	vectors := map[shared.ID][]float32{"a": {1, 0}, "b": {1, 0}, "c": {0, 1}}

	out := mmrDiversify(ranked, vectors, 0.7, 2)

	assert.Len(t, out, 2)
}

func TestMMRDiversify_PrefersDiverseCandidateOverRedundantHighScore(t *testing.T) {
	// b is nearly as good as a but redundant (identical vector); c is
	// lower-scored but orthogonal. With enough diversity weight, c should
	// be preferred for the second slot.
	ranked := []Scored{{ResourceID: "a", Score: 1.0}, {ResourceID: "b", Score: 0.99}, {ResourceID: "c", Score: 0.5}}
	vectors := map[shared.ID][]float32{"a": {1, 0}, "b": {1, 0}, "c": {0, 1}}

	out := mmrDiversify(ranked, vectors, 0.3, 2)

	require.Len(t, out, 2)
	assert.Equal(t, shared.ID("a"), out[0].ResourceID)
	assert.Equal(t, shared.ID("c"), out[1].ResourceID)
}

func TestInverseLogPopularity_DecreasesWithViews(t *testing.T) {
	assert.Greater(t, inverseLogPopularity(0), inverseLogPopularity(1000))
}
