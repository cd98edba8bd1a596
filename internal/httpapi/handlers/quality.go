package handlers

import (
	"math/rand"
	"net/http"

	"github.com/go-chi/chi/v5"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
	"neo-alexandria/internal/quality"
)

// QualityHandler serves spec §6's quality endpoints: on-demand
// recomputation for one resource and population-level outlier detection.
type QualityHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewQualityHandler(c *app.Container, resp *response.Handler) *QualityHandler {
	return &QualityHandler{c: c, resp: resp}
}

// Recompute handles POST /resources/{id}/quality/recompute, mirroring
// Dispatch's handleQualityRecompute for a synchronous, on-demand call.
func (h *QualityHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	res, err := h.c.ResourceRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	citations, err := h.c.CitationRepo.ListBySource(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	var valid int
	for _, cit := range citations {
		if cit.TargetResourceID() != nil {
			valid++
		}
	}

	in := quality.Input{
		TotalCitations: len(citations), ValidCitations: valid,
		HasTitle: res.Title() != "", HasDescription: res.Description() != "",
		HasSubject: len(res.Subjects()) > 0, HasCreator: res.Creator() != "",
		HasPublisher: res.Publisher() != "", HasLanguage: res.Language() != "",
		HasType: res.Type() != "", IngestedAt: res.CreatedAt(), Now: h.c.Clock.Now(),
	}
	weights := quality.Weights{
		Accuracy: h.c.Config.Quality.WeightAccuracy, Completeness: h.c.Config.Quality.WeightCompleteness,
		Consistency: h.c.Config.Quality.WeightConsistency, Timeliness: h.c.Config.Quality.WeightTimeliness,
		Relevance: h.c.Config.Quality.WeightRelevance,
	}
	dims := quality.Compute(in, weights)
	res.ScoreQuality(resource.QualityDimensions{
		Accuracy: dims.Accuracy, Completeness: dims.Completeness, Consistency: dims.Consistency,
		Timeliness: dims.Timeliness, Relevance: dims.Relevance, Overall: dims.Overall,
	}, h.c.Clock)
	if err := h.c.ResourceRepo.Save(r.Context(), res); err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.RecomputeQualityResponse{
		ResourceID: id.String(),
		Quality: dto.QualityDTO{
			Accuracy: dims.Accuracy, Completeness: dims.Completeness, Consistency: dims.Consistency,
			Timeliness: dims.Timeliness, Relevance: dims.Relevance, Overall: dims.Overall,
		},
	})
}

// Outliers handles GET /quality/outliers: runs the population-level
// Isolation Forest pass over every resource's current quality dimensions
// (spec §4.8). Not wired into any per-resource task handler — outlier
// detection is inherently a batch, whole-population operation, so it is
// exposed only here rather than invented as a per-resource side effect.
func (h *QualityHandler) Outliers(w http.ResponseWriter, r *http.Request) {
	population := make(map[shared.ID]quality.Dimensions)
	cursor := ""
	for {
		page, next, err := h.c.ResourceRepo.List(r.Context(), resource.ListFilter{Cursor: cursor, Limit: 200})
		if err != nil {
			writeError(h.resp, w, r, err)
			return
		}
		for _, res := range page {
			q := res.Quality()
			population[res.ID()] = quality.Dimensions{
				Accuracy: q.Accuracy, Completeness: q.Completeness, Consistency: q.Consistency,
				Timeliness: q.Timeliness, Relevance: q.Relevance, Overall: q.Overall,
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}

	reports := quality.DetectOutliers(population, rand.New(rand.NewSource(1)))
	out := make([]dto.OutlierDTO, 0, len(reports))
	for _, rep := range reports {
		out = append(out, dto.OutlierDTO{ResourceID: rep.ID.String(), Score: rep.Score, Outlier: rep.Outlier, Reasons: rep.Reasons})
	}
	response.JSON(w, http.StatusOK, dto.OutliersResponse{Outliers: out})
}
