package dto

// QualityDTO mirrors resource.QualityDimensions at the wire boundary.
type QualityDTO struct {
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Timeliness   float64 `json:"timeliness"`
	Relevance    float64 `json:"relevance"`
	Overall      float64 `json:"overall"`
}

// RecomputeQualityResponse is POST /resources/{id}/quality/recompute's body.
type RecomputeQualityResponse struct {
	ResourceID string     `json:"resource_id"`
	Quality    QualityDTO `json:"quality"`
}

// OutlierDTO is one flagged (or cleared) resource from a quality audit.
type OutlierDTO struct {
	ResourceID string   `json:"resource_id"`
	Score      float64  `json:"score"`
	Outlier    bool     `json:"outlier"`
	Reasons    []string `json:"reasons,omitempty"`
}

// OutliersResponse is GET /quality/outliers's body.
type OutliersResponse struct {
	Outliers []OutlierDTO `json:"outliers"`
}

// RecommendationsQuery binds GET /recommendations's query parameters.
type RecommendationsQuery struct {
	Strategy   string
	Diversity  float64
	MinQuality float64
	Limit      int
}

// RecommendationDTO is one scored candidate in a recommendation response.
type RecommendationDTO struct {
	ResourceID    string             `json:"resource_id"`
	Score         float64            `json:"score"`
	NoveltyScore  float64            `json:"novelty_score"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
}

// RecommendationsResponse is GET /recommendations's body.
type RecommendationsResponse struct {
	Recommendations []RecommendationDTO `json:"recommendations"`
}

// CreateAnnotationRequest is the body of POST /resources/{id}/annotations.
type CreateAnnotationRequest struct {
	StartOffset int      `json:"start_offset" validate:"gte=0"`
	EndOffset   int      `json:"end_offset" validate:"gtfield=StartOffset"`
	Note        string   `json:"note,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Color       string   `json:"color,omitempty"`
	Shared      bool     `json:"shared"`
}

// UpdateAnnotationRequest is the body of PUT /annotations/{id}.
type UpdateAnnotationRequest struct {
	Note  string   `json:"note"`
	Tags  []string `json:"tags,omitempty"`
	Color string   `json:"color,omitempty"`
}

// AnnotationDTO is one annotation as returned by the annotation endpoints.
type AnnotationDTO struct {
	ID              string   `json:"id"`
	ResourceID      string   `json:"resource_id"`
	StartOffset     int      `json:"start_offset"`
	EndOffset       int      `json:"end_offset"`
	HighlightedText string   `json:"highlighted_text"`
	Note            string   `json:"note,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Color           string   `json:"color,omitempty"`
	Shared          bool     `json:"shared"`
}

// AnnotationsResponse is GET /resources/{id}/annotations's body.
type AnnotationsResponse struct {
	Annotations []AnnotationDTO `json:"annotations"`
}

// CreateCollectionRequest is the body of POST /collections.
type CreateCollectionRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description,omitempty"`
	Visibility  string  `json:"visibility,omitempty" validate:"omitempty,oneof=private shared public"`
	ParentID    string  `json:"parent_id,omitempty"`
}

// AddCollectionMemberRequest is the body of
// POST /collections/{id}/members.
type AddCollectionMemberRequest struct {
	ResourceID string `json:"resource_id" validate:"required"`
}

// CollectionDTO is one collection as returned by the collection endpoints.
type CollectionDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Visibility  string   `json:"visibility"`
	ParentID    *string  `json:"parent_id,omitempty"`
	Owner       string   `json:"owner"`
	MemberIDs   []string `json:"member_ids"`
}

// CollectionsResponse is GET /collections's body.
type CollectionsResponse struct {
	Collections []CollectionDTO `json:"collections"`
}

// HealthResponse is GET /health's body.
type HealthResponse struct {
	Status string `json:"status"`
}

// MonitoringStatusResponse is GET /monitoring/status's body.
type MonitoringStatusResponse struct {
	Status     string         `json:"status"`
	QueueStats map[string]any `json:"queue_stats"`
	CacheStats map[string]any `json:"cache_stats"`
}

// MonitoringEventDTO is one recent domain event, for
// GET /monitoring/events[/history].
type MonitoringEventDTO struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// MonitoringEventsResponse is GET /monitoring/events's body.
type MonitoringEventsResponse struct {
	Events []MonitoringEventDTO `json:"events"`
}
