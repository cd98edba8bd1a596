package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWeights_Validate(t *testing.T) {
	assert.True(t, DefaultWeights.Validate())
}

func TestWeights_Validate_RejectsBadSum(t *testing.T) {
	w := Weights{Accuracy: 0.5, Completeness: 0.5, Consistency: 0.5}
	assert.False(t, w.Validate())
}

func TestCompute_FullySpecifiedResourceScoresHigh(t *testing.T) {
	now := time.Now()
	published := now.AddDate(-1, 0, 0)
	in := Input{
		TotalCitations: 10, ValidCitations: 9, CredibleDomain: true, HasAcademicID: true, HasAuthors: true,
		HasTitle: true, HasDescription: true, HasSubject: true,
		HasCreator: true, HasPublisher: true, HasLanguage: true, HasType: true,
		HasDOI: true, HasAbstract: true, HasAuthorsList: true, HasDate: true,
		HasEquations: true, HasTables: true, HasFigures: true,
		TitleEmbedding:       []float32{1, 0, 0},
		DescriptionEmbedding: []float32{1, 0, 0},
		PublishedAt:          &published,
		IngestedAt:           now,
		Now:                  now,
		MaxClassificationConfidence: 0.95,
		NormalizedInboundCitations:  0.8,
	}

	d := Compute(in, DefaultWeights)

	assert.Greater(t, d.Overall, 0.8)
	assert.LessOrEqual(t, d.Overall, 1.0)
}

func TestCompute_EmptyResourceScoresLow(t *testing.T) {
	in := Input{Now: time.Now(), IngestedAt: time.Now().AddDate(-2, 0, 0)}

	d := Compute(in, DefaultWeights)

	assert.Less(t, d.Completeness, 0.1)
}

func TestConsistency_PenalizesClassificationConflict(t *testing.T) {
	base := Input{TitleEmbedding: []float32{1, 0}, DescriptionEmbedding: []float32{1, 0}}
	withConflict := base
	withConflict.ClassificationConflictsSubjects = true

	scoreWithout := consistency(base)
	scoreWith := consistency(withConflict)

	assert.InDelta(t, 0.20, scoreWithout-scoreWith, 1e-9)
}

func TestTimeliness_DecaysWithAge(t *testing.T) {
	now := time.Now()
	recent := now.AddDate(-1, 0, 0)
	old := now.AddDate(-15, 0, 0)

	recentScore := timeliness(Input{PublishedAt: &recent, Now: now, IngestedAt: now.AddDate(-1, 0, 0)})
	oldScore := timeliness(Input{PublishedAt: &old, Now: now, IngestedAt: now.AddDate(-1, 0, 0)})

	assert.Greater(t, recentScore, oldScore)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.5, clamp01(0.5))
}
