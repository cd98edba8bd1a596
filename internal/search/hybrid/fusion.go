package hybrid

import (
	"sort"

	"neo-alexandria/internal/domain/shared"
)

const rrfK = 60.0

// rankedList is one retriever's output, already limited to K_retrieve and
// ordered best-first.
type rankedList []shared.ID

func toRankedList(ids []shared.ID) rankedList { return ids }

// fusedHit is one id's RRF score plus its per-method contribution, used
// both for sorting and for the diagnostics' method_contributions.
type fusedHit struct {
	ID           shared.ID
	Score        float64
	Contribution map[string]float64
}

// reciprocalRankFusion implements spec §4.6's Phase F: score(id) =
// Σ_m w_m · 1/(k_RRF + rank_m(id)), 1-indexed ranks, missing id from a list
// contributes 0.
func reciprocalRankFusion(lists map[string]rankedList, w map[string]float64) []fusedHit {
	scores := make(map[shared.ID]*fusedHit)

	order := make([]string, 0, len(lists))
	for name := range lists {
		order = append(order, name)
	}
	sort.Strings(order) // deterministic iteration for reproducible ties

	for _, method := range order {
		list := lists[method]
		weight := w[method]
		for rank, id := range list {
			hit, ok := scores[id]
			if !ok {
				hit = &fusedHit{ID: id, Contribution: make(map[string]float64)}
				scores[id] = hit
			}
			contribution := weight * (1.0 / (rrfK + float64(rank+1)))
			hit.Score += contribution
			hit.Contribution[method] += contribution
		}
	}

	result := make([]fusedHit, 0, len(scores))
	for _, hit := range scores {
		result = append(result, *hit)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	return result
}

// methodContributions aggregates per-method share across the fused list,
// for the diagnostics envelope (spec: "method_contributions").
func methodContributions(hits []fusedHit) map[string]float64 {
	totals := make(map[string]float64)
	var grand float64
	for _, h := range hits {
		for m, c := range h.Contribution {
			totals[m] += c
			grand += c
		}
	}
	if grand == 0 {
		return totals
	}
	for m := range totals {
		totals[m] /= grand
	}
	return totals
}
