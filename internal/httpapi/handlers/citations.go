package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/citationgraph"
	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
)

// resourceLookup adapts the resource repository to
// citationgraph.ResourceURLLookup for the synchronous Resolve endpoint,
// the same linear-scan approach Dispatch's TaskCitationResolve branch
// uses at the embedded-dialect scale (see DESIGN.md).
type resourceLookup struct {
	c *app.Container
}

func (l resourceLookup) FindByNormalizedURL(ctx context.Context, normalizedURL string) (shared.ID, bool, error) {
	cursor := ""
	for {
		page, next, err := l.c.ResourceRepo.List(ctx, resource.ListFilter{Cursor: cursor, Limit: 200})
		if err != nil {
			return "", false, err
		}
		for _, res := range page {
			normalized, err := citationgraph.NormalizeURL(res.OriginURL())
			if err == nil && normalized == normalizedURL {
				return res.ID(), true, nil
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return "", false, nil
}

// CitationHandler serves spec §6's citation graph endpoints: per-resource
// listing, subgraph visualization, manual extraction/resolution, and
// importance recomputation.
type CitationHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewCitationHandler(c *app.Container, resp *response.Handler) *CitationHandler {
	return &CitationHandler{c: c, resp: resp}
}

func toCitationDTO(c *citation.Citation) dto.CitationDTO {
	var target *string
	if id := c.TargetResourceID(); id != nil {
		s := id.String()
		target = &s
	}
	return dto.CitationDTO{
		ID:             c.ID().String(),
		SourceID:       c.SourceResourceID().String(),
		TargetID:       target,
		TargetURL:      c.TargetURL(),
		Type:           string(c.Type()),
		ContextSnippet: c.ContextSnippet(),
		Position:       c.Position(),
		Importance:     c.Importance(),
	}
}

// ListForResource handles
// GET /citations/resources/{id}/citations?direction=inbound|outbound|both.
func (h *CitationHandler) ListForResource(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	dir := citationgraph.Direction(r.URL.Query().Get("direction"))
	if dir == "" {
		dir = citationgraph.DirectionBoth
	}

	summary, err := citationgraph.QueryResource(r.Context(), h.c.CitationRepo, id, dir)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	var out dto.CitationsResponse
	for _, c := range summary.Inbound {
		out.Inbound = append(out.Inbound, toCitationDTO(c))
	}
	for _, c := range summary.Outbound {
		out.Outbound = append(out.Outbound, toCitationDTO(c))
	}
	response.JSON(w, http.StatusOK, out)
}

// Graph handles GET /citations/graph/citations?seed_id=...&limit=...: a
// bounded citation subgraph around a seed resource, ranked by the
// PageRank-style importance computed by POST .../importance/compute.
func (h *CitationHandler) Graph(w http.ResponseWriter, r *http.Request) {
	seed, err := parseID(r.URL.Query().Get("seed_id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	all, err := h.c.CitationRepo.All(r.Context())
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	var resolved []*citation.Citation
	for _, c := range all {
		if c.TargetResourceID() != nil {
			resolved = append(resolved, c)
		}
	}
	importance := citationgraph.PageRank(resolved)
	nodes, edges := citationgraph.Subgraph(seed, resolved, importance)

	out := dto.CitationGraphResponse{}
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, dto.CitationGraphNode{ID: n.ID.String(), Importance: n.Importance})
	}
	for _, e := range edges {
		out.Edges = append(out.Edges, dto.GraphEdgeDTO{Source: e.Source.String(), Target: e.Target.String()})
	}
	response.JSON(w, http.StatusOK, out)
}

// Extract handles POST /resources/{id}/citations/extract: scans the
// resource's archived text for citation candidates and persists them
// unresolved, mirroring the async handleCitationExtract task handler for
// callers who want it run synchronously.
func (h *CitationHandler) Extract(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	body, err := h.c.Blobs.Get(r.Context(), "resources/"+id.String()+"/archive.txt")
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	existing, err := h.c.CitationRepo.ListBySource(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	type citationKey struct {
		url string
		pos int
	}
	stored := make(map[citationKey]bool, len(existing))
	for _, c := range existing {
		stored[citationKey{c.TargetURL(), c.Position()}] = true
	}

	candidates := citationgraph.ExtractFromText(string(body))
	for _, cand := range candidates {
		if stored[citationKey{cand.TargetURL, cand.Position}] {
			continue
		}
		cit := citation.New(id, cand.TargetURL, cand.Type, cand.ContextSnippet, cand.Position, h.c.Clock)
		if err := h.c.CitationRepo.Save(r.Context(), cit); err != nil {
			writeError(h.resp, w, r, err)
			return
		}
	}
	response.JSON(w, http.StatusOK, dto.ExtractCitationsResponse{Extracted: len(candidates)})
}

// Resolve handles POST /citations/resolve: retries resolution for every
// unresolved citation against the current corpus.
func (h *CitationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	resolved, err := citationgraph.ResolveUnresolved(r.Context(), h.c.CitationRepo, resourceLookup{h.c})
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ResolveCitationsResponse{Resolved: resolved})
}

// ComputeImportance handles POST /citations/importance/compute: runs the
// PageRank pass over the full resolved citation graph and caches each
// resource's rank, mirroring the Dispatch-driven TaskCitationPageRank
// handler for callers who want it run synchronously.
func (h *CitationHandler) ComputeImportance(w http.ResponseWriter, r *http.Request) {
	all, err := h.c.CitationRepo.All(r.Context())
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	var resolved []*citation.Citation
	for _, c := range all {
		if c.TargetResourceID() != nil {
			resolved = append(resolved, c)
		}
	}
	ranks := citationgraph.PageRank(resolved)
	for id, rank := range ranks {
		h.c.Cache.Set("citation_rank:"+id.String(), rank, h.c.Config.Cache.ClassificationTTL)
	}
	response.JSON(w, http.StatusOK, dto.ComputeImportanceResponse{Updated: len(ranks)})
}
