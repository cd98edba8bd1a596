package hybrid

import (
	"math"
	"sort"

	"neo-alexandria/internal/domain/shared"
)

// Evaluate computes nDCG@K, Recall@K, Precision@K, and MRR for a ranked id
// list against binary/graded relevance judgments (spec §4.6's evaluate).
func Evaluate(ranked []shared.ID, relevance map[shared.ID]float64, k int) Metrics {
	if k <= 0 || k > len(ranked) {
		k = len(ranked)
	}
	top := ranked[:k]

	var dcg float64
	relevantSeen := 0
	firstRelevantRank := 0
	for i, id := range top {
		rel := relevance[id]
		if rel > 0 {
			dcg += (math.Pow(2, rel) - 1) / math.Log2(float64(i+2))
			relevantSeen++
			if firstRelevantRank == 0 {
				firstRelevantRank = i + 1
			}
		}
	}

	idealRels := sortedRelevances(relevance)
	var idcg float64
	for i, rel := range idealRels {
		if i >= k {
			break
		}
		idcg += (math.Pow(2, rel) - 1) / math.Log2(float64(i+2))
	}

	totalRelevant := 0
	for _, rel := range relevance {
		if rel > 0 {
			totalRelevant++
		}
	}

	m := Metrics{}
	if idcg > 0 {
		m.NDCG = dcg / idcg
	}
	if totalRelevant > 0 {
		m.Recall = float64(relevantSeen) / float64(totalRelevant)
	}
	if k > 0 {
		m.Precision = float64(relevantSeen) / float64(k)
	}
	if firstRelevantRank > 0 {
		m.MRR = 1.0 / float64(firstRelevantRank)
	}
	return m
}

func sortedRelevances(relevance map[shared.ID]float64) []float64 {
	rels := make([]float64, 0, len(relevance))
	for _, r := range relevance {
		rels = append(rels, r)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(rels)))
	return rels
}
