// Package recommend implements the recommendation engine from spec §4.11:
// content/graph/collaborative scoring strategies blended into a hybrid
// score, MMR diversification, and novelty tie-breaking.
package recommend

import (
	"context"
	"math"
	"sort"
	"time"

	"neo-alexandria/internal/domain/shared"
)

const (
	coldStartInteractionFloor = 5
	defaultDiversity          = 0.3 // diversity_preference default -> lambda = 1 - 0.3 = 0.7
	noveltyTieEpsilon         = 1e-6
)

// Strategy names the scoring approach a candidate's score came from, for
// the response metadata.
type Strategy string

const (
	StrategyContent       Strategy = "content"
	StrategyGraph         Strategy = "graph"
	StrategyCollaborative Strategy = "collaborative"
	StrategyHybrid        Strategy = "hybrid"
)

// Interaction is one positive user/resource interaction (e.g. a read,
// save, or annotation), used to exclude already-seen resources, to detect
// cold start, and by the recency scorer. Graph scores come from
// Candidate.GraphScore instead.
type Interaction struct {
	ResourceID shared.ID
	At         time.Time
}

// Candidate is one resource eligible for recommendation, with the raw
// signals each strategy needs.
type Candidate struct {
	ResourceID   shared.ID
	DenseVector  []float32
	Quality      float64
	ViewCount    int
	GraphNeighbor bool    // true if reachable from a positively-interacted resource
	GraphScore   float64 // precomputed weighted edge sum from kernel.graph, if GraphNeighbor
}

// CollaborativeScorer is the injected black-box NCF-style collaborative
// filtering model (Open Question resolution: the spec leaves the
// collaborative model's internals unspecified, so it is treated as an
// external scoring seam like kernel.EmbeddingGateway).
type CollaborativeScorer interface {
	// Score returns a score in [0,1] per candidate resource not yet
	// interacted with. Returns ok=false when the user has insufficient
	// interaction history.
	Score(ctx context.Context, userID shared.ID, candidates []shared.ID) (scores map[shared.ID]float64, ok bool, err error)
}

// Weights are the blend coefficients for the hybrid strategy.
type Weights struct {
	Collaborative float64
	Content       float64
	Graph         float64
	Quality       float64
	Recency       float64
}

// DefaultWeights is spec §4.11's hybrid default.
var DefaultWeights = Weights{Collaborative: 0.35, Content: 0.30, Graph: 0.20, Quality: 0.10, Recency: 0.05}

// ColdStartWeights is used when the user has fewer than
// coldStartInteractionFloor positive interactions (spec §4.11).
var ColdStartWeights = Weights{Content: 0.60, Graph: 0.30, Quality: 0.10}

// Scored is one candidate's final blended score plus its strategy
// breakdown and novelty.
type Scored struct {
	ResourceID    shared.ID
	Score         float64
	NoveltyScore  float64
	Contributions map[Strategy]float64
}

// Options configures one recommend() call.
type Options struct {
	Strategy    Strategy // empty means hybrid
	Diversity   float64  // diversity_preference in [0,1], default 0 -> lambda 0.7
	MinQuality  float64
	Limit       int
}

// Recommend scores, filters, blends, and MMR-diversifies candidates for a
// user (spec §4.11's recommend operation).
func Recommend(ctx context.Context, userID shared.ID, userVector []float32, interactions []Interaction,
	candidates []Candidate, collaborative CollaborativeScorer, opts Options) ([]Scored, error) {

	interacted := make(map[shared.ID]struct{}, len(interactions))
	for _, i := range interactions {
		interacted[i.ResourceID] = struct{}{}
	}

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, done := interacted[c.ResourceID]; done {
			continue
		}
		if c.Quality < opts.MinQuality {
			continue
		}
		eligible = append(eligible, c)
	}

	contentScores := make(map[shared.ID]float64, len(eligible))
	graphScores := make(map[shared.ID]float64, len(eligible))
	recencyScores := make(map[shared.ID]float64, len(eligible))
	for _, c := range eligible {
		contentScores[c.ResourceID] = cosine(userVector, c.DenseVector)
		graphScores[c.ResourceID] = c.GraphScore
	}
	lastInteraction := mostRecentInteraction(interactions)
	for _, c := range eligible {
		recencyScores[c.ResourceID] = recencyDiscount(lastInteraction)
	}

	var collabScores map[shared.ID]float64
	collabAvailable := false
	if collaborative != nil && len(interactions) >= coldStartInteractionFloor {
		ids := make([]shared.ID, len(eligible))
		for i, c := range eligible {
			ids[i] = c.ResourceID
		}
		scores, ok, err := collaborative.Score(ctx, userID, ids)
		if err != nil {
			return nil, err
		}
		collabScores, collabAvailable = scores, ok
	}

	weights := resolveWeights(opts.Strategy, len(interactions) >= coldStartInteractionFloor, collabAvailable)

	scored := make([]Scored, 0, len(eligible))
	for _, c := range eligible {
		contributions := map[Strategy]float64{}
		var total float64
		if weights.Content > 0 {
			v := weights.Content * contentScores[c.ResourceID]
			contributions[StrategyContent] = v
			total += v
		}
		if weights.Graph > 0 {
			v := weights.Graph * graphScores[c.ResourceID]
			contributions[StrategyGraph] = v
			total += v
		}
		if weights.Quality > 0 {
			v := weights.Quality * c.Quality
			contributions[StrategyQuality()] = v
			total += v
		}
		if weights.Recency > 0 {
			v := weights.Recency * recencyScores[c.ResourceID]
			contributions[StrategyRecency()] = v
			total += v
		}
		if weights.Collaborative > 0 && collabAvailable {
			v := weights.Collaborative * collabScores[c.ResourceID]
			contributions[StrategyCollaborative] = v
			total += v
		}
		scored = append(scored, Scored{ResourceID: c.ResourceID, Score: total, Contributions: contributions})
	}

	applyNovelty(scored, eligible)

	// Stable: applyNovelty's popularity tiebreak for score ties within
	// noveltyTieEpsilon must survive this sort, and sort.Slice is free to
	// reorder equal elements via pdqsort's partitioning.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	vectors := make(map[shared.ID][]float32, len(eligible))
	for _, c := range eligible {
		vectors[c.ResourceID] = c.DenseVector
	}

	lambda := 1 - opts.Diversity
	if opts.Diversity == 0 {
		lambda = 1 - defaultDiversity
	}
	return mmrDiversify(scored, vectors, lambda, opts.Limit), nil
}

// StrategyQuality and StrategyRecency are not named strategies in spec
// §4.11 (only content/graph/collaborative are), but are broken out in the
// contribution map for transparency in the response metadata.
func StrategyQuality() Strategy { return Strategy("quality") }
func StrategyRecency() Strategy { return Strategy("recency") }

func resolveWeights(strategy Strategy, pastColdStart, collabAvailable bool) Weights {
	switch strategy {
	case StrategyContent:
		return Weights{Content: 1}
	case StrategyGraph:
		return Weights{Graph: 1}
	case StrategyCollaborative:
		if collabAvailable {
			return Weights{Collaborative: 1}
		}
		return Weights{Content: 1}
	}

	w := DefaultWeights
	if !pastColdStart {
		w = ColdStartWeights
	}
	if !collabAvailable {
		w.Collaborative = 0
	}
	return renormalize(w)
}

func renormalize(w Weights) Weights {
	sum := w.Collaborative + w.Content + w.Graph + w.Quality + w.Recency
	if sum == 0 {
		return w
	}
	return Weights{
		Collaborative: w.Collaborative / sum,
		Content:       w.Content / sum,
		Graph:         w.Graph / sum,
		Quality:       w.Quality / sum,
		Recency:       w.Recency / sum,
	}
}

func mostRecentInteraction(interactions []Interaction) *time.Time {
	var latest *time.Time
	for _, i := range interactions {
		if latest == nil || i.At.After(*latest) {
			at := i.At
			latest = &at
		}
	}
	return latest
}

// recencyDiscount scores higher when the user's most recent interaction was
// recent, a proxy for "the user is actively engaged right now" (spec §4.11
// names recency as a hybrid component without fixing its formula).
func recencyDiscount(lastInteraction *time.Time) float64 {
	if lastInteraction == nil {
		return 0
	}
	ageDays := time.Since(*lastInteraction).Hours() / 24
	return math.Max(0, 1-ageDays/30)
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

// applyNovelty sets NoveltyScore (inverse log popularity) and, per spec
// §4.11, prefers the less popular candidate when two scores tie within 1e-6.
func applyNovelty(scored []Scored, candidates []Candidate) {
	viewCount := make(map[shared.ID]int, len(candidates))
	for _, c := range candidates {
		viewCount[c.ResourceID] = c.ViewCount
	}
	for i := range scored {
		scored[i].NoveltyScore = inverseLogPopularity(viewCount[scored[i].ResourceID])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if math.Abs(scored[i].Score-scored[j].Score) < noveltyTieEpsilon {
			return scored[i].NoveltyScore > scored[j].NoveltyScore
		}
		return false
	})
}

func inverseLogPopularity(viewCount int) float64 {
	return 1 / (1 + math.Log1p(float64(viewCount)))
}
