package recommend

import (
	"math"

	"neo-alexandria/internal/domain/shared"
)

// mmrDiversify greedily selects up to limit candidates from ranked (already
// sorted best-first) using Maximal Marginal Relevance:
// MMR = λ·score − (1−λ)·max_{s∈selected} cosine(candidate, s) (spec §4.11).
func mmrDiversify(ranked []Scored, vectors map[shared.ID][]float32, lambda float64, limit int) []Scored {
	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	if limit == 0 {
		return nil
	}

	remaining := append([]Scored(nil), ranked...)
	selected := make([]Scored, 0, limit)
	selectedVectors := make([][]float32, 0, limit)

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := 0
		bestMMR := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			for _, sv := range selectedVectors {
				if sim := cosine(vectors[cand.ResourceID], sv); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := lambda*cand.Score - (1-lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		selectedVectors = append(selectedVectors, vectors[remaining[bestIdx].ResourceID])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
