package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
)

// GraphHandler serves spec §6's resource-similarity graph endpoints.
type GraphHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewGraphHandler(c *app.Container, resp *response.Handler) *GraphHandler {
	return &GraphHandler{c: c, resp: resp}
}

// Neighbors handles GET /graph/resource/{id}/neighbors?limit=7.
func (h *GraphHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	limit := clampLimit(queryInt(r, "limit", 7), 100)

	neighbors, err := h.c.Graph.Neighbors(r.Context(), id, limit)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	out := make([]dto.GraphNeighbor, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, dto.GraphNeighbor{
			ID:          n.ID.String(),
			Score:       n.Score,
			VectorScore: n.Edge.Vector,
		})
	}
	response.JSON(w, http.StatusOK, dto.NeighborsResponse{ResourceID: id.String(), Neighbors: out})
}

// Overview handles GET /graph/overview?limit=50&vector_threshold=0.85.
func (h *GraphHandler) Overview(w http.ResponseWriter, r *http.Request) {
	limit := clampLimit(queryInt(r, "limit", 50), 500)
	threshold := 0.85
	if v := queryFloat(r, "vector_threshold"); v != nil {
		threshold = *v
	}

	overview, err := h.c.Graph.OverviewQuery(r.Context(), limit, threshold)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	nodes := make([]string, 0, len(overview.Nodes))
	for _, id := range overview.Nodes {
		nodes = append(nodes, id.String())
	}
	edges := make([]dto.GraphEdgeDTO, 0, len(overview.Edges))
	for _, e := range overview.Edges {
		edges = append(edges, dto.GraphEdgeDTO{Source: e.A.String(), Target: e.B.String(), Score: e.Score})
	}
	response.JSON(w, http.StatusOK, dto.OverviewResponse{Nodes: nodes, Edges: edges})
}
