// Package lexical implements the lexical index contract from spec §4.3:
// BM25-style ranking over title/description/body with field weights, kept
// in process memory and updated synchronously by upsert/delete so the
// URGENT-priority convergence task (spec: "converge within 5 seconds") has
// something cheap to call into.
package lexical

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"neo-alexandria/internal/domain/shared"
)

// FieldWeights are the per-field BM25 multipliers (Open Question
// resolution in SPEC_FULL.md §4: title ×3.0, description ×1.5, body ×1.0).
type FieldWeights struct {
	Title       float64
	Description float64
	Body        float64
}

var DefaultFieldWeights = FieldWeights{Title: 3.0, Description: 1.5, Body: 1.0}

// Document is the tokenizable unit passed to Upsert.
type Document struct {
	Title       string
	Description string
	Body        string
}

const (
	k1 = 1.2
	b  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Tokenize lowercases and splits on non-alphanumeric runs. Shared by the
// index and the hybrid engine's query-analysis step.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

type docEntry struct {
	id         shared.ID
	termFreq   map[string]float64 // weighted term frequency
	weightedLen float64
}

// Index is a thread-safe in-memory BM25 index over multiple resources.
type Index struct {
	mu      sync.RWMutex
	weights FieldWeights
	docs    map[shared.ID]*docEntry
	df      map[string]int // number of documents containing the term
	totalWeightedLen float64
}

func NewIndex(weights FieldWeights) *Index {
	if weights == (FieldWeights{}) {
		weights = DefaultFieldWeights
	}
	return &Index{
		weights: weights,
		docs:    make(map[shared.ID]*docEntry),
		df:      make(map[string]int),
	}
}

// Upsert (re)indexes a resource's tokenized fields, replacing any prior
// version of the document.
func (idx *Index) Upsert(id shared.ID, doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.docs[id]; ok {
		idx.removeLocked(existing)
	}

	tf := make(map[string]float64)
	weightedLen := 0.0
	accumulate := func(text string, weight float64) {
		for _, tok := range Tokenize(text) {
			tf[tok] += weight
			weightedLen += weight
		}
	}
	accumulate(doc.Title, idx.weights.Title)
	accumulate(doc.Description, idx.weights.Description)
	accumulate(doc.Body, idx.weights.Body)

	entry := &docEntry{id: id, termFreq: tf, weightedLen: weightedLen}
	idx.docs[id] = entry
	idx.totalWeightedLen += weightedLen
	for term := range tf {
		idx.df[term]++
	}
}

// Delete removes a resource from the index.
func (idx *Index) Delete(id shared.ID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if entry, ok := idx.docs[id]; ok {
		idx.removeLocked(entry)
	}
}

func (idx *Index) removeLocked(entry *docEntry) {
	delete(idx.docs, entry.id)
	idx.totalWeightedLen -= entry.weightedLen
	for term := range entry.termFreq {
		idx.df[term]--
		if idx.df[term] <= 0 {
			delete(idx.df, term)
		}
	}
}

// Result is a single lexical hit.
type Result struct {
	ID    shared.ID
	Score float64
}

// Search returns the top `limit` documents ranked by BM25 score for query.
func (idx *Index) Search(query string, limit int) []Result {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docs)
	if n == 0 {
		return nil
	}
	avgdl := idx.totalWeightedLen / float64(n)
	if avgdl == 0 {
		avgdl = 1
	}

	idf := make(map[string]float64, len(terms))
	for _, t := range terms {
		df := idx.df[t]
		idf[t] = math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
	}

	results := make([]Result, 0, len(idx.docs))
	for id, entry := range idx.docs {
		var score float64
		for _, t := range terms {
			tf := entry.termFreq[t]
			if tf == 0 {
				continue
			}
			norm := 1 - b + b*entry.weightedLen/avgdl
			score += idf[t] * (tf * (k1 + 1)) / (tf + k1*norm)
		}
		if score > 0 {
			results = append(results, Result{ID: id, Score: score})
		}
	}

	sortResultsDesc(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// DocumentFrequency exposes how many indexed documents contain term,
// used by the hybrid engine's adaptive-weighting query analysis
// ("single-token... appears as exact term in ≥5 documents").
func (idx *Index) DocumentFrequency(term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.df[strings.ToLower(term)]
}

func sortResultsDesc(r []Result) {
	sort.Slice(r, func(i, j int) bool { return r[i].Score > r[j].Score })
}
