package handlers

import (
	"net/http"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
	"neo-alexandria/internal/recommend"
)

// RecommendHandler serves spec §6's recommendation endpoint. This
// deployment persists no per-user interaction history (see
// app.Container.Dispatch's TaskRecommendationProfile no-op), so every
// call runs cold-start content/graph/quality scoring against the current
// corpus rather than a precomputed collaborative profile.
type RecommendHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewRecommendHandler(c *app.Container, resp *response.Handler) *RecommendHandler {
	return &RecommendHandler{c: c, resp: resp}
}

// Recommend handles GET /recommendations.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()
	opts := recommend.Options{
		Strategy:   recommend.Strategy(qv.Get("strategy")),
		MinQuality: 0,
		Limit:      clampLimit(queryInt(r, "limit", 10), 50),
	}
	if v := queryFloat(r, "diversity_preference"); v != nil {
		opts.Diversity = *v
	}
	if v := queryFloat(r, "min_quality"); v != nil {
		opts.MinQuality = *v
	}

	var candidates []recommend.Candidate
	cursor := ""
	for {
		page, next, err := h.c.ResourceRepo.List(r.Context(), resource.ListFilter{Cursor: cursor, Limit: 200})
		if err != nil {
			writeError(h.resp, w, r, err)
			return
		}
		for _, res := range page {
			vec, _, _ := h.c.Dense.Get(r.Context(), res.ID())
			neighbors, err := h.c.Graph.Neighbors(r.Context(), res.ID(), 1)
			graphNeighbor := err == nil && len(neighbors) > 0
			var graphScore float64
			if graphNeighbor {
				graphScore = neighbors[0].Score
			}
			candidates = append(candidates, recommend.Candidate{
				ResourceID: res.ID(), DenseVector: vec, Quality: res.Quality().Overall,
				GraphNeighbor: graphNeighbor, GraphScore: graphScore,
			})
		}
		if next == "" || len(candidates) > 2000 {
			break
		}
		cursor = next
	}

	scored, err := recommend.Recommend(r.Context(), shared.ID("anonymous"), nil, nil, candidates, nil, opts)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	out := make([]dto.RecommendationDTO, 0, len(scored))
	for _, s := range scored {
		contributions := make(map[string]float64, len(s.Contributions))
		for strategy, v := range s.Contributions {
			contributions[string(strategy)] = v
		}
		out = append(out, dto.RecommendationDTO{
			ResourceID: s.ResourceID.String(), Score: s.Score,
			NoveltyScore: s.NoveltyScore, Contributions: contributions,
		})
	}
	response.JSON(w, http.StatusOK, dto.RecommendationsResponse{Recommendations: out})
}
