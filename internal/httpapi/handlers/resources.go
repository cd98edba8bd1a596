package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
	"neo-alexandria/internal/ingestion"
)

// ResourceHandler serves spec §6's core resource lifecycle: create
// (async ingestion), status polling, filtered listing, read, update,
// delete.
type ResourceHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewResourceHandler(c *app.Container, resp *response.Handler) *ResourceHandler {
	return &ResourceHandler{c: c, resp: resp}
}

// Create handles POST /resources: kicks off async ingestion and returns
// immediately with a pending status (spec §6).
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateResourceRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	overrides := ingestion.Overrides{
		Title:        req.Title,
		Description:  req.Description,
		Creator:      req.Creator,
		Publisher:    req.Publisher,
		Language:     req.Language,
		ResourceType: req.Type,
		Subjects:     req.Subjects,
	}
	id, err := h.c.Ingestion.Ingest(r.Context(), req.URL, overrides)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	response.JSON(w, http.StatusAccepted, dto.CreateResourceResponse{
		ID:     id.String(),
		Status: string(resource.StatusPending),
	})
}

// Status handles GET /resources/{id}/status.
func (h *ResourceHandler) Status(w http.ResponseWriter, r *http.Request) {
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

	out := dto.ResourceStatusResponse{ID: res.ID().String(), IngestionStatus: string(res.Status())}
	if res.Status() != resource.StatusPending {
		started := res.CreatedAt()
		out.StartedAt = &started
	}
	if res.Status() == resource.StatusCompleted || res.Status() == resource.StatusFailed {
		completed := res.UpdatedAt()
		out.CompletedAt = &completed
	}
	if res.Status() == resource.StatusFailed {
		out.IngestionError = "ingestion failed"
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /resources/{id}.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	response.JSON(w, http.StatusOK, toResourceDTO(res))
}

// Update handles PUT /resources/{id}: domain has no piecemeal field
// setters beyond ApplyEnrichment, so the handler fetches, merges caller-
// supplied fields over the current values, and re-applies enrichment with
// the merged set.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	var req dto.UpdateResourceRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	res, err := h.c.ResourceRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	description, creator, publisher, language, resType := res.Description(), res.Creator(), res.Publisher(), res.Language(), res.Type()
	subjects := res.Subjects()
	if req.Description != nil {
		description = *req.Description
	}
	if req.Creator != nil {
		creator = *req.Creator
	}
	if req.Publisher != nil {
		publisher = *req.Publisher
	}
	if req.Language != nil {
		language = *req.Language
	}
	if req.Type != nil {
		resType = *req.Type
	}
	if req.Subjects != nil {
		subjects = *req.Subjects
	}
	res.ApplyEnrichment(description, creator, publisher, language, resType, subjects, h.c.Clock)

	if err := h.c.ResourceRepo.Save(r.Context(), res); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toResourceDTO(res))
}

// Delete handles DELETE /resources/{id}. Per spec §3/§8's cascade-delete
// invariant, removing a resource must also sever every other module's
// reference to it: collection membership, annotations, citation edges in
// both directions, graph edges, and search-index entries. The repo delete
// itself only drops the Resource row; the rest runs as the
// EventResourceDeleted subscriber registered in app.registerEventHandlers,
// alongside the existing cache-invalidation subscriber for the same event.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	if _, err := h.c.ResourceRepo.FindByID(r.Context(), id); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	if err := h.c.ResourceRepo.Delete(r.Context(), id); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	h.c.Bus.Emit(r.Context(), shared.NewEvent(h.c.Clock, shared.EventResourceDeleted, map[string]any{"resource_id": id.String()}))
	response.JSON(w, http.StatusNoContent, nil)
}

// List handles GET /resources. resource.ListFilter only narrows by
// status/subject/classification_code and paginates by cursor; spec §6's
// fuller filter vocabulary (q, type, language, min_quality, date ranges,
// subject_any/all) and offset pagination are applied here, in the
// handler, over a broad cursor-walked page (see DESIGN.md).
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	filter := resource.ListFilter{ClassificationCode: q.ClassificationCode, Limit: 200}
	if len(q.SubjectAny) == 1 && len(q.SubjectAll) == 0 {
		filter.Subject = q.SubjectAny[0]
	}

	var all []*resource.Resource
	cursor := ""
	for {
		filter.Cursor = cursor
		page, next, err := h.c.ResourceRepo.List(r.Context(), filter)
		if err != nil {
			writeError(h.resp, w, r, err)
			return
		}
		all = append(all, page...)
		if next == "" || len(all) > 10_000 {
			break
		}
		cursor = next
	}

	filtered := make([]*resource.Resource, 0, len(all))
	for _, res := range all {
		if matchesListQuery(res, q) {
			filtered = append(filtered, res)
		}
	}
	sortResources(filtered, q.SortBy, q.SortDir)

	total := len(filtered)
	limit := clampLimit(q.Limit, 25)
	offset := q.Offset
	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[offset:end]

	items := make([]dto.ResourceResponse, 0, len(page))
	for _, res := range page {
		items = append(items, toResourceDTO(res))
	}
	response.JSON(w, http.StatusOK, dto.ResourceListResponse{Items: items, Total: total})
}

func parseListQuery(r *http.Request) dto.ResourceListQuery {
	qv := r.URL.Query()
	return dto.ResourceListQuery{
		Q:                  qv.Get("q"),
		ClassificationCode: qv.Get("classification_code"),
		Type:               qv.Get("type"),
		Language:           qv.Get("language"),
		ReadStatus:         qv.Get("read_status"),
		MinQuality:         queryFloat(r, "min_quality"),
		CreatedFrom:        queryTime(r, "created_from"),
		CreatedTo:          queryTime(r, "created_to"),
		UpdatedFrom:        queryTime(r, "updated_from"),
		UpdatedTo:          queryTime(r, "updated_to"),
		SubjectAny:         queryList(r, "subject_any"),
		SubjectAll:         queryList(r, "subject_all"),
		Limit:              queryInt(r, "limit", 25),
		Offset:             queryInt(r, "offset", 0),
		SortBy:             qv.Get("sort_by"),
		SortDir:            qv.Get("sort_dir"),
	}
}

func matchesListQuery(res *resource.Resource, q dto.ResourceListQuery) bool {
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		haystack := strings.ToLower(res.Title() + " " + res.Description())
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if q.Type != "" && res.Type() != q.Type {
		return false
	}
	if q.Language != "" && res.Language() != q.Language {
		return false
	}
	if q.MinQuality != nil && res.Quality().Overall < *q.MinQuality {
		return false
	}
	if q.CreatedFrom != nil && res.CreatedAt().Before(*q.CreatedFrom) {
		return false
	}
	if q.CreatedTo != nil && res.CreatedAt().After(*q.CreatedTo) {
		return false
	}
	if q.UpdatedFrom != nil && res.UpdatedAt().Before(*q.UpdatedFrom) {
		return false
	}
	if q.UpdatedTo != nil && res.UpdatedAt().After(*q.UpdatedTo) {
		return false
	}
	if len(q.SubjectAny) > 0 && !hasAny(res.Subjects(), q.SubjectAny) {
		return false
	}
	if len(q.SubjectAll) > 0 && !hasAll(res.Subjects(), q.SubjectAll) {
		return false
	}
	return true
}

func hasAny(have, want []string) bool {
	set := toSet(have)
	for _, w := range want {
		if set[w] {
			return true
		}
	}
	return false
}

func hasAll(have, want []string) bool {
	set := toSet(have)
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}

func sortResources(items []*resource.Resource, sortBy, sortDir string) {
	desc := sortDir != "asc"
	less := func(i, j int) bool {
		a, b := items[i], items[j]
		switch sortBy {
		case "quality":
			return a.Quality().Overall < b.Quality().Overall
		case "title":
			return a.Title() < b.Title()
		case "updated_at":
			return a.UpdatedAt().Before(b.UpdatedAt())
		default: // created_at
			return a.CreatedAt().Before(b.CreatedAt())
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func toResourceDTO(res *resource.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:                 res.ID().String(),
		Title:              res.Title(),
		Description:        res.Description(),
		Creator:            res.Creator(),
		Publisher:          res.Publisher(),
		OriginURL:          res.OriginURL(),
		Language:           res.Language(),
		Type:               res.Type(),
		Subjects:           res.Subjects(),
		ClassificationCode: res.ClassificationCode(),
		Status:             string(res.Status()),
		QualityOverall:     res.Quality().Overall,
		HasDenseVector:     res.HasDenseVector(),
		HasSparseVector:    res.HasSparseVector(),
		CreatedAt:          res.CreatedAt(),
		UpdatedAt:          res.UpdatedAt(),
	}
}
