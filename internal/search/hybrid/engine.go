package hybrid

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
	"neo-alexandria/internal/kernel"
	"neo-alexandria/internal/search/dense"
	"neo-alexandria/internal/search/lexical"
	"neo-alexandria/internal/search/sparse"
)

var tracer = otel.Tracer("neo-alexandria/search/hybrid")

// Config carries the engine's deployment-tunable knobs (SPEC_FULL.md
// config.Config.Search).
type Config struct {
	DefaultHybridWeight float64
}

// Engine is the three-way hybrid search engine, spec §4.6.
type Engine struct {
	lexical  *lexical.Index
	dense    dense.Index
	sparse   *sparse.Index
	embedder kernel.EmbeddingGateway
	reranker kernel.RerankerGateway
	metadata MetadataProvider
	cfg      Config
	logger   *zap.Logger
}

func NewEngine(lex *lexical.Index, den dense.Index, spr *sparse.Index, embedder kernel.EmbeddingGateway,
	reranker kernel.RerankerGateway, metadata MetadataProvider, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{lexical: lex, dense: den, sparse: spr, embedder: embedder, reranker: reranker,
		metadata: metadata, cfg: cfg, logger: logger}
}

// kRetrieve is spec §4.6's K_retrieve = max(200, 5·limit).
func kRetrieve(limit int) int {
	k := 5 * limit
	if k < 200 {
		k = 200
	}
	return k
}

// Search runs the full R/F/X pipeline.
func (e *Engine) Search(ctx context.Context, query string, limit, offset int, filters Filters,
	enableReranking, adaptiveWeights bool) (*Response, error) {
	if limit <= 0 {
		limit = 25
	}
	diag := Diagnostics{PhaseTimingsMs: map[string]float64{}}

	// Phase R — retrieval.
	ctx, rSpan := tracer.Start(ctx, "search.retrieve")
	rStart := time.Now()
	kr := kRetrieve(limit)
	lex, den, spr, failures := e.retrieve(ctx, query, kr)
	diag.PhaseTimingsMs["retrieve"] = msSince(rStart)
	diag.RetrieverFailures = failures
	rSpan.End()

	if lex == nil && den == nil && spr == nil {
		diag.AllRetrieversFailed = true
		return &Response{Diagnostics: diag, Facets: emptyFacets()}, nil
	}

	// Phase F — fusion.
	ctx, fSpan := tracer.Start(ctx, "search.fuse")
	fStart := time.Now()
	w := uniformWeights()
	if adaptiveWeights {
		w = analyzeQuery(query, e.lexical)
	} else if e.cfg.DefaultHybridWeight > 0 {
		w = weights{Lexical: e.cfg.DefaultHybridWeight, Dense: 1 - e.cfg.DefaultHybridWeight}
	}

	lists := map[string]rankedList{}
	weightMap := map[string]float64{}
	if lex != nil {
		lists["lexical"] = toRankedList(lex)
		weightMap["lexical"] = w.Lexical
	}
	if den != nil {
		lists["dense"] = toRankedList(den)
		weightMap["dense"] = w.Dense
	}
	if spr != nil {
		lists["sparse"] = toRankedList(spr)
		weightMap["sparse"] = w.Sparse
	} else {
		diag.SparseCollapsed = true
		renorm := w.renormalize(true)
		weightMap["lexical"] = renorm.Lexical
		weightMap["dense"] = renorm.Dense
	}

	fused := reciprocalRankFusion(lists, weightMap)
	diag.MethodContributions = methodContributions(fused)
	diag.WeightsUsed = weightMap
	diag.PhaseTimingsMs["fuse"] = msSince(fStart)
	fSpan.End()

	fusedIDs := make([]shared.ID, len(fused))
	for i, h := range fused {
		fusedIDs[i] = h.ID
	}

	// Phase X — optional rerank.
	scores := make(map[shared.ID]float64, len(fused))
	for _, h := range fused {
		scores[h.ID] = h.Score
	}
	if enableReranking && e.reranker != nil && len(fusedIDs) > 0 {
		ctx, xSpan := tracer.Start(ctx, "search.rerank")
		xStart := time.Now()
		if err := e.rerank(ctx, query, fusedIDs, limit, scores); err != nil {
			diag.RerankerFailed = true
			e.logger.Warn("reranker failed, falling back to fused ranking", zap.Error(err))
		}
		diag.PhaseTimingsMs["rerank"] = msSince(xStart)
		xSpan.End()
	}

	sort.SliceStable(fusedIDs, func(i, j int) bool { return scores[fusedIDs[i]] > scores[fusedIDs[j]] })

	// Resolve metadata for the full candidate pool once.
	views, err := e.metadata.Get(ctx, fusedIDs)
	if err != nil {
		diag.FacetError = true
		return &Response{Diagnostics: diag, Facets: emptyFacets()}, errorkit.Wrap(errorkit.Internal, "search_metadata", "failed to resolve candidate metadata", err)
	}

	fusedPool := make([]ResourceView, 0, len(fusedIDs))
	for _, id := range fusedIDs {
		if v, ok := views[id]; ok {
			fusedPool = append(fusedPool, v)
		}
	}

	// Filter + paginate.
	filteredSorted := make([]ResourceView, 0, len(fusedPool))
	for _, v := range fusedPool {
		if matchesFilters(v, filters) {
			filteredSorted = append(filteredSorted, v)
		}
	}
	total := len(filteredSorted)

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	page := filteredSorted[start:end]

	results := make([]Result, len(page))
	for i, v := range page {
		results[i] = Result{ID: v.ID, Score: scores[v.ID], Snippet: buildSnippet(query, v)}
	}

	return &Response{
		Results:     results,
		Total:       total,
		Facets:      computeFacets(filteredSorted, fusedPool),
		Diagnostics: diag,
	}, nil
}

// retrieve runs lexical, dense, and sparse searches concurrently. A nil
// return for a method signals it failed or produced no results for this
// query; fusion proceeds on the remainder (spec §4.6).
func (e *Engine) retrieve(ctx context.Context, query string, limit int) (lex, den, spr []shared.ID, failures []string) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	addFailure := func(name string) {
		mu.Lock()
		failures = append(failures, name)
		mu.Unlock()
	}

	wg.Add(3)

	go func() {
		defer wg.Done()
		defer recoverInto(addFailure, "lexical")
		hits := e.lexical.Search(query, limit)
		if len(hits) == 0 {
			return
		}
		ids := make([]shared.ID, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
		}
		mu.Lock()
		lex = ids
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		defer recoverInto(addFailure, "dense")
		vec, err := e.embedder.Embed(ctx, query)
		if err != nil {
			addFailure("dense")
			return
		}
		hits, err := e.dense.Search(ctx, vec, limit)
		if err != nil {
			addFailure("dense")
			return
		}
		ids := make([]shared.ID, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
		}
		mu.Lock()
		den = ids
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		defer recoverInto(addFailure, "sparse")
		terms, err := e.embedder.EmbedSparse(ctx, query)
		if err != nil {
			addFailure("sparse")
			return
		}
		vec := make(sparse.Vector, len(terms))
		for t, w := range terms {
			vec[t] = float64(w)
		}
		hits := e.sparse.Search(vec, limit)
		if len(hits) == 0 {
			return
		}
		ids := make([]shared.ID, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
		}
		mu.Lock()
		spr = ids
		mu.Unlock()
	}()

	wg.Wait()
	return
}

func recoverInto(addFailure func(string), name string) {
	if r := recover(); r != nil {
		addFailure(name)
	}
}

const rerankInputRunes = 512

// rerank implements Phase X: rerank the top K_rerank = min(100, 5*limit)
// fused ids, replacing their score with the cross-encoder's.
func (e *Engine) rerank(ctx context.Context, query string, fusedIDs []shared.ID, limit int, scores map[shared.ID]float64) error {
	kRerank := 5 * limit
	if kRerank > 100 {
		kRerank = 100
	}
	if kRerank > len(fusedIDs) {
		kRerank = len(fusedIDs)
	}
	candidates := fusedIDs[:kRerank]

	views, err := e.metadata.Get(ctx, candidates)
	if err != nil {
		return err
	}

	docs := make([]string, len(candidates))
	for i, id := range candidates {
		v := views[id]
		docs[i] = v.Title + " " + v.Description + " " + truncateRunes(v.Body, rerankInputRunes)
	}

	rerankScores, err := e.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return err
	}
	for i, id := range candidates {
		if i < len(rerankScores) {
			scores[id] = float64(rerankScores[i])
		}
	}
	return nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func emptyFacets() Facets {
	return Facets{
		ClassificationCode: map[string]int{},
		Type:                map[string]int{},
		Language:            map[string]int{},
		ReadStatus:          map[string]int{},
		Subject:             map[string]int{},
	}
}
