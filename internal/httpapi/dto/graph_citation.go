package dto

// GraphNeighbor is one ranked neighbor in GET /graph/resource/{id}/neighbors.
// Score is the full weighted edge score (spec §4.9's vector/tags/
// classification blend); VectorScore is the cosine component alone, kept
// separate since it also drives overview thresholding and tie-break.
type GraphNeighbor struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	VectorScore float64 `json:"vector_score"`
}

// NeighborsResponse is GET /graph/resource/{id}/neighbors's body.
type NeighborsResponse struct {
	ResourceID string          `json:"resource_id"`
	Neighbors  []GraphNeighbor `json:"neighbors"`
}

// GraphEdgeDTO is one edge in a GET /graph/overview response.
type GraphEdgeDTO struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Score  float64 `json:"score"`
}

// OverviewResponse is GET /graph/overview's body.
type OverviewResponse struct {
	Nodes []string       `json:"nodes"`
	Edges []GraphEdgeDTO `json:"edges"`
}

// CitationDTO is one citation edge, resolved or not.
type CitationDTO struct {
	ID             string   `json:"id"`
	SourceID       string   `json:"source_resource_id"`
	TargetID       *string  `json:"target_resource_id,omitempty"`
	TargetURL      string   `json:"target_url"`
	Type           string   `json:"type"`
	ContextSnippet string   `json:"context_snippet,omitempty"`
	Position       int      `json:"position"`
	Importance     *float64 `json:"importance,omitempty"`
}

// CitationsResponse is GET /citations/resources/{id}/citations's body.
type CitationsResponse struct {
	Inbound  []CitationDTO `json:"inbound,omitempty"`
	Outbound []CitationDTO `json:"outbound,omitempty"`
}

// CitationGraphResponse is GET /citations/graph/citations's body: a
// bounded subgraph around a seed resource.
type CitationGraphResponse struct {
	Nodes []CitationGraphNode `json:"nodes"`
	Edges []GraphEdgeDTO      `json:"edges"`
}

type CitationGraphNode struct {
	ID         string  `json:"id"`
	Importance float64 `json:"importance"`
}

// ExtractCitationsResponse reports how many citation candidates were
// extracted and queued for resolution.
type ExtractCitationsResponse struct {
	Extracted int `json:"extracted"`
}

// ResolveCitationsResponse reports how many unresolved citations were
// newly resolved against the corpus.
type ResolveCitationsResponse struct {
	Resolved int `json:"resolved"`
}

// ComputeImportanceResponse reports how many citation ranks were
// recomputed by the PageRank pass.
type ComputeImportanceResponse struct {
	Updated int `json:"updated"`
}
