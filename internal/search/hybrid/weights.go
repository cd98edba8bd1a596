package hybrid

import (
	"neo-alexandria/internal/search/lexical"
)

// weights is the per-method RRF weighting for a single query.
type weights struct {
	Lexical float64
	Dense   float64
	Sparse  float64
}

func uniformWeights() weights {
	return weights{Lexical: 1.0 / 3, Dense: 1.0 / 3, Sparse: 1.0 / 3}
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "or": {}, "to": {}, "in": {},
	"on": {}, "for": {}, "with": {}, "is": {}, "are": {}, "was": {}, "were": {}, "by": {},
	"at": {}, "it": {}, "as": {}, "be": {}, "this": {}, "that": {}, "from": {},
}

// analyzeQuery implements the deterministic adaptive-weighting rule from
// spec §4.6. lex is consulted for the "appears as exact term in ≥5
// documents" single-token rule.
func analyzeQuery(query string, lex *lexical.Index) weights {
	tokens := lexical.Tokenize(query)
	if len(tokens) == 0 {
		return uniformWeights()
	}

	if len(tokens) == 1 && isASCII(tokens[0]) && lex.DocumentFrequency(tokens[0]) >= 5 {
		return weights{Lexical: 0.5, Dense: 0.25, Sparse: 0.25}
	}

	stopwordCount := 0
	for _, t := range tokens {
		if _, ok := stopwords[t]; ok {
			stopwordCount++
		}
	}
	stopwordRatio := float64(stopwordCount) / float64(len(tokens))

	if len(tokens) >= 2 && len(tokens) <= 3 && stopwordRatio < 0.5 {
		return weights{Lexical: 0.35, Dense: 0.35, Sparse: 0.30}
	}

	return weights{Lexical: 0.25, Dense: 0.45, Sparse: 0.30}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// renormalize rescales weights to sum to 1 after dropping an unavailable
// retriever (spec §4.6: "silently collapses... weights renormalized").
func (w weights) renormalize(dropSparse bool) weights {
	if !dropSparse {
		return w
	}
	sum := w.Lexical + w.Dense
	if sum == 0 {
		return weights{Lexical: 0.5, Dense: 0.5}
	}
	return weights{Lexical: w.Lexical / sum, Dense: w.Dense / sum}
}
