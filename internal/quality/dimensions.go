// Package quality computes the five-dimension quality score from spec §4.8,
// runs isolation-forest outlier detection over the resource population, and
// flags resources whose score degraded materially over a lookback window.
package quality

import (
	"math"
	"time"
)

// Weights are the per-dimension contributions to Overall (spec §4.8
// default: {accuracy:0.30, completeness:0.25, consistency:0.20,
// timeliness:0.15, relevance:0.10}).
type Weights struct {
	Accuracy     float64
	Completeness float64
	Consistency  float64
	Timeliness   float64
	Relevance    float64
}

var DefaultWeights = Weights{Accuracy: 0.30, Completeness: 0.25, Consistency: 0.20, Timeliness: 0.15, Relevance: 0.10}

// Validate checks the weights sum to 1 ± 1e-6, per spec.
func (w Weights) Validate() bool {
	sum := w.Accuracy + w.Completeness + w.Consistency + w.Timeliness + w.Relevance
	return sum >= 1-1e-6 && sum <= 1+1e-6
}

// Input is every raw signal the five dimension formulas need, gathered by
// the caller (resource metadata, citation subgraph, classifier output,
// embeddings) so this package stays a pure function of its inputs.
type Input struct {
	// Accuracy
	TotalCitations   int
	ValidCitations   int
	CredibleDomain   bool
	HasAcademicID    bool // DOI/ISBN/arXiv id present
	HasAuthors       bool

	// Completeness
	HasTitle, HasDescription, HasSubject       bool
	HasCreator, HasPublisher, HasLanguage, HasType bool
	HasDOI, HasAbstract, HasAuthorsList, HasDate   bool
	HasEquations, HasTables, HasFigures             bool

	// Consistency
	TitleEmbedding       []float32
	DescriptionEmbedding []float32
	ClassificationConflictsSubjects bool

	// Timeliness
	PublishedAt *time.Time
	IngestedAt  time.Time
	Now         time.Time

	// Relevance
	MaxClassificationConfidence float64
	NormalizedInboundCitations  float64 // already normalized to [0,1] by caller
}

// Dimensions holds the five scored axes, each clamped to [0,1].
type Dimensions struct {
	Accuracy     float64
	Completeness float64
	Consistency  float64
	Timeliness   float64
	Relevance    float64
	Overall      float64
}

// Compute runs all five dimension formulas and the weighted overall score.
func Compute(in Input, w Weights) Dimensions {
	d := Dimensions{
		Accuracy:     accuracy(in),
		Completeness: completeness(in),
		Consistency:  consistency(in),
		Timeliness:   timeliness(in),
		Relevance:    relevance(in),
	}
	d.Overall = clamp01(w.Accuracy*d.Accuracy + w.Completeness*d.Completeness +
		w.Consistency*d.Consistency + w.Timeliness*d.Timeliness + w.Relevance*d.Relevance)
	return d
}

func accuracy(in Input) float64 {
	score := 0.5
	if in.TotalCitations > 0 {
		score += 0.20 * (float64(in.ValidCitations) / float64(in.TotalCitations))
	}
	if in.CredibleDomain {
		score += 0.15
	}
	if in.HasAcademicID {
		score += 0.15
	}
	if in.HasAuthors {
		score += 0.10
	}
	return clamp01(score)
}

func completeness(in Input) float64 {
	required := fracTrue(in.HasTitle, in.HasDescription, in.HasSubject)
	important := fracTrue(in.HasCreator, in.HasPublisher, in.HasLanguage, in.HasType)
	scholarly := fracTrue(in.HasDOI, in.HasAbstract, in.HasAuthorsList, in.HasDate)
	multimodal := fracTrue(in.HasEquations, in.HasTables, in.HasFigures)
	return clamp01(0.30*required + 0.30*important + 0.20*scholarly + 0.20*multimodal)
}

func fracTrue(flags ...bool) float64 {
	if len(flags) == 0 {
		return 0
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return float64(n) / float64(len(flags))
}

func consistency(in Input) float64 {
	sim := cosine(in.TitleEmbedding, in.DescriptionEmbedding)
	score := (sim + 1) / 2 // renormalize [-1,1] -> [0,1]
	if in.ClassificationConflictsSubjects {
		score -= 0.20
	}
	return clamp01(score)
}

func timeliness(in Input) float64 {
	score := 1.0
	if in.PublishedAt != nil {
		ageYears := in.Now.Sub(*in.PublishedAt).Hours() / (24 * 365)
		score = math.Max(0, 1-ageYears/20)
	}
	if in.Now.Sub(in.IngestedAt) <= 30*24*time.Hour {
		score += 0.10
	}
	return clamp01(score)
}

func relevance(in Input) float64 {
	return clamp01(in.MaxClassificationConfidence*0.7 + in.NormalizedInboundCitations*0.3)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
