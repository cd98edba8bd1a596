package dto

// SearchFilters mirrors hybrid.Filters at the wire boundary.
type SearchFilters struct {
	ClassificationCode string   `json:"classification_code,omitempty"`
	Language            string   `json:"language,omitempty"`
	Type                string   `json:"type,omitempty"`
	ReadStatus          string   `json:"read_status,omitempty"`
	MinQuality          *float64 `json:"min_quality,omitempty"`
	CreatedFrom         string   `json:"created_from,omitempty"`
	CreatedTo           string   `json:"created_to,omitempty"`
	UpdatedFrom         string   `json:"updated_from,omitempty"`
	UpdatedTo           string   `json:"updated_to,omitempty"`
	SubjectAny          []string `json:"subject_any,omitempty"`
	SubjectAll          []string `json:"subject_all,omitempty"`
}

// SearchRequest is the body of POST /search (spec §6's two-way hybrid
// search). HybridWeight is validated but the handler does not pass it on;
// the engine fuses with its configured default weight.
type SearchRequest struct {
	Text         string         `json:"text" validate:"required"`
	HybridWeight *float64       `json:"hybrid_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
	Filters      *SearchFilters `json:"filters,omitempty"`
	Limit        int            `json:"limit,omitempty" validate:"omitempty,gte=1,lte=100"`
	Offset       int            `json:"offset,omitempty" validate:"omitempty,gte=0"`
	SortBy       string         `json:"sort_by,omitempty"`
	SortDir      string         `json:"sort_dir,omitempty"`
}

// SearchResult is one ranked hit in a search response.
type SearchResult struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

// SearchResponse is the three-way-hybrid response shape (spec §6):
// results, total, latency, per-method contributions, weights used, and
// facets. POST /search returns the same shape without latency_ms.
type SearchResponse struct {
	Results              []SearchResult     `json:"results"`
	Total                int                `json:"total"`
	LatencyMs            float64            `json:"latency_ms,omitempty"`
	MethodContributions map[string]float64 `json:"method_contributions,omitempty"`
	WeightsUsed          map[string]float64 `json:"weights_used,omitempty"`
	Facets               *Facets            `json:"facets,omitempty"`
}

// Facets mirrors hybrid.Facets at the wire boundary.
type Facets struct {
	ClassificationCode map[string]int `json:"classification_code,omitempty"`
	Type                map[string]int `json:"type,omitempty"`
	Language            map[string]int `json:"language,omitempty"`
	ReadStatus          map[string]int `json:"read_status,omitempty"`
	Subject             map[string]int `json:"subject,omitempty"`
}

// CompareMethodsResponse reports each retrieval method's result set for
// the same query side by side, for GET /search/compare-methods.
type CompareMethodsResponse struct {
	Lexical []SearchResult `json:"lexical"`
	Dense   []SearchResult `json:"dense"`
	Sparse  []SearchResult `json:"sparse"`
	Hybrid  []SearchResult `json:"hybrid"`
}

// EvaluateRequest is the body of POST /search/evaluate: a query plus
// known relevance judgments, scored against an @k cutoff.
type EvaluateRequest struct {
	Query     string             `json:"query" validate:"required"`
	Relevance map[string]float64 `json:"relevance" validate:"required"`
	K         int                `json:"k,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// EvaluateResponse is hybrid.Metrics at the wire boundary.
type EvaluateResponse struct {
	NDCG      float64 `json:"ndcg"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
	MRR       float64 `json:"mrr"`
}
