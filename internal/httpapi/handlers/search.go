package handlers

import (
	"net/http"
	"time"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
	"neo-alexandria/internal/search/hybrid"
)

// SearchHandler serves spec §6's search surface: the two-way POST /search,
// the full three-way GET /search/three-way-hybrid, a per-method
// comparison, and offline evaluation.
type SearchHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewSearchHandler(c *app.Container, resp *response.Handler) *SearchHandler {
	return &SearchHandler{c: c, resp: resp}
}

func toHybridFilters(f *dto.SearchFilters) hybrid.Filters {
	if f == nil {
		return hybrid.Filters{}
	}
	parseTime := func(s string) *time.Time {
		if s == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil
		}
		return &t
	}
	return hybrid.Filters{
		ClassificationCode: f.ClassificationCode,
		Language:           f.Language,
		Type:               f.Type,
		ReadStatus:         f.ReadStatus,
		MinQuality:         f.MinQuality,
		CreatedFrom:        parseTime(f.CreatedFrom),
		CreatedTo:          parseTime(f.CreatedTo),
		UpdatedFrom:        parseTime(f.UpdatedFrom),
		UpdatedTo:          parseTime(f.UpdatedTo),
		SubjectAny:         f.SubjectAny,
		SubjectAll:         f.SubjectAll,
	}
}

func toSearchResponse(resp *hybrid.Response) dto.SearchResponse {
	results := make([]dto.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, dto.SearchResult{ID: r.ID.String(), Score: r.Score, Snippet: r.Snippet})
	}
	var facets *dto.Facets
	if resp.Facets.ClassificationCode != nil || resp.Facets.Type != nil || resp.Facets.Language != nil ||
		resp.Facets.ReadStatus != nil || resp.Facets.Subject != nil {
		facets = &dto.Facets{
			ClassificationCode: resp.Facets.ClassificationCode,
			Type:               resp.Facets.Type,
			Language:           resp.Facets.Language,
			ReadStatus:         resp.Facets.ReadStatus,
			Subject:            resp.Facets.Subject,
		}
	}
	return dto.SearchResponse{
		Results:              results,
		Total:                resp.Total,
		MethodContributions: resp.Diagnostics.MethodContributions,
		WeightsUsed:          resp.Diagnostics.WeightsUsed,
		Facets:               facets,
	}
}

// Search handles POST /search: the two-way hybrid contract (spec §6).
// adaptiveWeights stays off and reranking always runs. req.HybridWeight is
// not passed to the engine, which fuses with config's
// DefaultHybridWeight whatever hybrid_weight the caller sends.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	limit := clampLimit(req.Limit, 25)

	resp, err := h.c.Hybrid.Search(r.Context(), req.Text, limit, req.Offset, toHybridFilters(req.Filters), true, false)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	out := toSearchResponse(resp)
	response.JSON(w, http.StatusOK, out)
}

// ThreeWayHybrid handles GET /search/three-way-hybrid: the full response
// shape including latency and method diagnostics (spec §6).
func (h *SearchHandler) ThreeWayHybrid(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit := clampLimit(queryInt(r, "limit", 25), 25)
	offset := queryInt(r, "offset", 0)
	enableReranking := queryBool(r, "enable_reranking", true)
	adaptiveWeighting := queryBool(r, "adaptive_weighting", true)

	start := time.Now()
	resp, err := h.c.Hybrid.Search(r.Context(), query, limit, offset, hybrid.Filters{}, enableReranking, adaptiveWeighting)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	out := toSearchResponse(resp)
	out.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
	response.JSON(w, http.StatusOK, out)
}

// CompareMethods handles GET /search/compare-methods: runs the same query
// through each retrieval method alone (reranking and adaptive weighting
// off) so a caller can inspect how lexical/dense/sparse individually rank
// it versus the fused hybrid result.
func (h *SearchHandler) CompareMethods(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit := clampLimit(queryInt(r, "limit", 10), 10)

	hybridResp, err := h.c.Hybrid.Search(r.Context(), query, limit, 0, hybrid.Filters{}, false, false)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	lexHits := h.c.Lexical.Search(query, limit)
	lexical := make([]dto.SearchResult, 0, len(lexHits))
	for _, hit := range lexHits {
		lexical = append(lexical, dto.SearchResult{ID: hit.ID.String(), Score: hit.Score})
	}

	denseVec, embedErr := h.c.Embedder.Embed(r.Context(), query)
	var dense []dto.SearchResult
	if embedErr == nil {
		denseHits, err := h.c.Dense.Search(r.Context(), denseVec, limit)
		if err == nil {
			for _, hit := range denseHits {
				dense = append(dense, dto.SearchResult{ID: hit.ID.String(), Score: hit.Score})
			}
		}
	}

	var sparseResults []dto.SearchResult
	sparseTerms, sparseErr := h.c.Embedder.EmbedSparse(r.Context(), query)
	if sparseErr == nil {
		vec := make(map[string]float64, len(sparseTerms))
		for term, weight := range sparseTerms {
			vec[term] = float64(weight)
		}
		for _, hit := range h.c.Sparse.Search(vec, limit) {
			sparseResults = append(sparseResults, dto.SearchResult{ID: hit.ID.String(), Score: hit.Score})
		}
	}

	response.JSON(w, http.StatusOK, dto.CompareMethodsResponse{
		Lexical: lexical,
		Dense:   dense,
		Sparse:  sparseResults,
		Hybrid:  toSearchResponse(hybridResp).Results,
	})
}

// Evaluate handles POST /search/evaluate: scores one query's ranking
// against caller-supplied relevance judgments (spec §4.6's evaluate op).
func (h *SearchHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req dto.EvaluateRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	k := req.K
	if k <= 0 {
		k = 10
	}

	resp, err := h.c.Hybrid.Search(r.Context(), req.Query, 100, 0, hybrid.Filters{}, true, false)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	ranked := make([]shared.ID, 0, len(resp.Results))
	for _, res := range resp.Results {
		ranked = append(ranked, res.ID)
	}
	relevance := make(map[shared.ID]float64, len(req.Relevance))
	for id, score := range req.Relevance {
		relevance[shared.ID(id)] = score
	}

	metrics := hybrid.Evaluate(ranked, relevance, k)
	response.JSON(w, http.StatusOK, dto.EvaluateResponse{
		NDCG: metrics.NDCG, Recall: metrics.Recall, Precision: metrics.Precision, MRR: metrics.MRR,
	})
}
