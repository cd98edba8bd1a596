// Package dto holds the request/response shapes for the REST layer:
// plain structs with validator tags, decoded and validated independently
// of the domain aggregates they front. Grounded on the teacher's
// CreateNodeRequest/UpdateNodeRequest/CreateNodeResponse pattern in
// interfaces/http/rest/handlers, adapted to Neo Alexandria's resource,
// search, graph, citation, taxonomy, quality, recommendation, annotation,
// and collection contracts (spec §6).
package dto

import "time"

// CreateResourceRequest is the body of POST /resources.
type CreateResourceRequest struct {
	URL         string   `json:"url" validate:"required,url"`
	Title       string   `json:"title,omitempty" validate:"omitempty,max=500"`
	Description string   `json:"description,omitempty"`
	Creator     string   `json:"creator,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Language    string   `json:"language,omitempty" validate:"omitempty,len=2"`
	Type        string   `json:"type,omitempty"`
	Subjects    []string `json:"subjects,omitempty" validate:"omitempty,dive,max=100"`
}

// CreateResourceResponse is spec §6's 202 body: "{id, status: pending}".
type CreateResourceResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UpdateResourceRequest is the body of PUT /resources/{id}: every field is
// optional, only supplied fields overwrite the existing resource.
type UpdateResourceRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=500"`
	Description *string   `json:"description,omitempty"`
	Creator     *string   `json:"creator,omitempty"`
	Publisher   *string   `json:"publisher,omitempty"`
	Language    *string   `json:"language,omitempty" validate:"omitempty,len=2"`
	Type        *string   `json:"type,omitempty"`
	Subjects    *[]string `json:"subjects,omitempty"`
}

// ResourceResponse is the full representation returned by GET/PUT
// /resources/{id} and embedded in ResourceListResponse.
type ResourceResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Creator            string    `json:"creator,omitempty"`
	Publisher          string    `json:"publisher,omitempty"`
	OriginURL          string    `json:"origin_url"`
	Language           string    `json:"language,omitempty"`
	Type               string    `json:"type,omitempty"`
	Subjects           []string  `json:"subjects,omitempty"`
	ClassificationCode string    `json:"classification_code,omitempty"`
	Status             string    `json:"ingestion_status"`
	QualityOverall     float64   `json:"quality_overall"`
	HasDenseVector     bool      `json:"has_dense_vector"`
	HasSparseVector    bool      `json:"has_sparse_vector"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ResourceStatusResponse is GET /resources/{id}/status's body (spec §6).
type ResourceStatusResponse struct {
	ID              string     `json:"id"`
	IngestionStatus string     `json:"ingestion_status"`
	IngestionError  string     `json:"ingestion_error,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// ResourceListQuery binds GET /resources's query parameters (spec §6):
// full-text filter, facet filters, date ranges, subject sets, pagination,
// and sort.
type ResourceListQuery struct {
	Q                  string
	ClassificationCode string
	Type               string
	Language           string
	ReadStatus         string
	MinQuality         *float64
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
	UpdatedFrom        *time.Time
	UpdatedTo          *time.Time
	SubjectAny         []string
	SubjectAll         []string
	Limit              int
	Offset             int
	SortBy             string
	SortDir            string
}

// ResourceListResponse is GET /resources's body: "{items, total}".
type ResourceListResponse struct {
	Items []ResourceResponse `json:"items"`
	Total int                `json:"total"`
}
