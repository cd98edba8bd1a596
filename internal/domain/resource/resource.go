// Package resource implements the Resource aggregate, the primary entity of
// the knowledge store (spec §3). Follows the teacher's node.Node shape:
// private fields behind a factory + explicit mutators, a staged events
// slice drained by the owning transaction after commit.
package resource

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

// Status is the ingestion-status lifecycle, spec §3: pending -> processing
// -> (completed | failed), no other transition permitted.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// QualityDimensions holds the five independently scored axes from spec §4.9,
// each in [0,1].
type QualityDimensions struct {
	Accuracy     float64
	Completeness float64
	Consistency  float64
	Timeliness   float64
	Relevance    float64
	Overall      float64
	ComputedAt   time.Time
}

// ModelVersions records the provenance of derived fields so re-embedding or
// re-classification after a model upgrade can be detected (spec §3).
type ModelVersions struct {
	EmbeddingModel   string
	ClassifierModel  string
	RerankerModel    string
}

// Resource is the canonical knowledge entity: identity, bibliographic
// metadata, ingestion lifecycle, and derived quality/classification state.
type Resource struct {
	id          shared.ID
	title       string
	description string
	creator     string
	publisher   string
	originURL   string
	language    string
	resType     string
	subjects    []string
	classCode   string
	archiveBlob string // opaque reference into blobstore

	status    Status
	quality   QualityDimensions
	models    ModelVersions

	hasDenseVector  bool
	hasSparseVector bool

	createdAt time.Time
	updatedAt time.Time
	version   int

	events []shared.Event
}

// NewResource creates a Resource row in pending status, per spec §4.2's
// ingest_resource contract: "creates a Resource row with status=pending,
// returns its id immediately."
func NewResource(originURL, title string, clock shared.Clock) (*Resource, error) {
	if originURL == "" {
		return nil, errorkit.Validationf("resource origin URL is required")
	}
	now := clock.Now()
	r := &Resource{
		id:        shared.NewID(),
		title:     title,
		originURL: originURL,
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
		version:   0,
	}
	r.addEvent(shared.NewEvent(clock, shared.EventResourceCreated, map[string]any{
		"resource_id": r.id.String(),
		"origin_url":  originURL,
	}))
	return r, nil
}

// Reconstruct rebuilds a Resource from storage without generating events.
func Reconstruct(
	id shared.ID, title, description, creator, publisher, originURL, language, resType string,
	subjects []string, classCode, archiveBlob string, status Status, quality QualityDimensions,
	models ModelVersions, hasDense, hasSparse bool, createdAt, updatedAt time.Time, version int,
) *Resource {
	return &Resource{
		id: id, title: title, description: description, creator: creator, publisher: publisher,
		originURL: originURL, language: language, resType: resType, subjects: subjects,
		classCode: classCode, archiveBlob: archiveBlob, status: status, quality: quality,
		models: models, hasDenseVector: hasDense, hasSparseVector: hasSparse,
		createdAt: createdAt, updatedAt: updatedAt, version: version,
	}
}

func (r *Resource) ID() shared.ID              { return r.id }
func (r *Resource) Title() string              { return r.title }
func (r *Resource) Description() string        { return r.description }
func (r *Resource) Creator() string            { return r.creator }
func (r *Resource) Publisher() string          { return r.publisher }
func (r *Resource) OriginURL() string          { return r.originURL }
func (r *Resource) Language() string           { return r.language }
func (r *Resource) Type() string               { return r.resType }
func (r *Resource) Subjects() []string         { return append([]string(nil), r.subjects...) }
func (r *Resource) ClassificationCode() string { return r.classCode }
func (r *Resource) ArchiveBlob() string        { return r.archiveBlob }
func (r *Resource) Status() Status             { return r.status }
func (r *Resource) Quality() QualityDimensions { return r.quality }
func (r *Resource) Models() ModelVersions      { return r.models }
func (r *Resource) HasDenseVector() bool       { return r.hasDenseVector }
func (r *Resource) HasSparseVector() bool      { return r.hasSparseVector }
func (r *Resource) CreatedAt() time.Time       { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time       { return r.updatedAt }
func (r *Resource) Version() int               { return r.version }

// Transition moves the resource to the next ingestion status, enforcing
// the pending->processing->(completed|failed) invariant from spec §3.
func (r *Resource) Transition(to Status, clock shared.Clock) error {
	allowed := validTransitions[r.status]
	ok := false
	for _, s := range allowed {
		if s == to {
			ok = true
			break
		}
	}
	if !ok {
		return errorkit.Conflictf("invalid_status_transition", "invalid status transition %s -> %s", r.status, to)
	}
	if to == StatusCompleted && !(r.hasDenseVector && r.hasSparseVector) {
		return errorkit.Conflictf("missing_vectors", "cannot complete resource %s without both dense and sparse vectors", r.id)
	}
	r.status = to
	r.touch(clock)

	switch to {
	case StatusCompleted:
		r.addEvent(shared.NewEvent(clock, shared.EventIngestionCompleted, map[string]any{"resource_id": r.id.String()}))
	case StatusFailed:
		r.addEvent(shared.NewEvent(clock, shared.EventIngestionFailed, map[string]any{"resource_id": r.id.String()}))
	}
	return nil
}

// ApplyEnrichment sets the bibliographic/descriptive fields gathered during
// the ingestion pipeline's extract/enrich stages (spec §4.11).
func (r *Resource) ApplyEnrichment(description, creator, publisher, language, resType string, subjects []string, clock shared.Clock) {
	r.description = description
	r.creator = creator
	r.publisher = publisher
	r.language = language
	r.resType = resType
	r.subjects = subjects
	r.touch(clock)
	r.addEvent(shared.NewEvent(clock, shared.EventResourceContentChanged, map[string]any{"resource_id": r.id.String()}))
}

// SetVectors records that dense/sparse embeddings exist, satisfying the
// completion invariant. archiveBlob is the blobstore key for the archived
// full text.
func (r *Resource) SetVectors(hasDense, hasSparse bool, archiveBlob, embeddingModel string, clock shared.Clock) {
	r.hasDenseVector = hasDense
	r.hasSparseVector = hasSparse
	r.archiveBlob = archiveBlob
	r.models.EmbeddingModel = embeddingModel
	r.touch(clock)
}

// Classify records the predicted classification code, per spec §4.8.
func (r *Resource) Classify(code string, classifierModel string, clock shared.Clock) {
	r.classCode = code
	r.models.ClassifierModel = classifierModel
	r.touch(clock)
	r.addEvent(shared.NewEvent(clock, shared.EventResourceClassified, map[string]any{
		"resource_id": r.id.String(), "classification_code": code,
	}))
}

// ScoreQuality stores the computed quality dimensions, per spec §4.9.
func (r *Resource) ScoreQuality(q QualityDimensions, clock shared.Clock) {
	q.ComputedAt = clock.Now()
	r.quality = q
	r.touch(clock)
	r.addEvent(shared.NewEvent(clock, shared.EventResourceQualityScored, map[string]any{
		"resource_id": r.id.String(), "overall": q.Overall,
	}))
}

func (r *Resource) touch(clock shared.Clock) {
	r.updatedAt = clock.Now()
	r.version++
}

func (r *Resource) addEvent(e shared.Event) { r.events = append(r.events, e) }

// PullEvents drains and returns the staged events, implementing
// kernel.EventSource.
func (r *Resource) PullEvents() []shared.Event {
	events := r.events
	r.events = nil
	return events
}

// NeedsQualityReview reports the heuristic from spec §5 scenario 5:
// resources with low completeness/timeliness/relevance warrant a manual
// look even absent a hard outlier flag.
func (r *Resource) NeedsQualityReview() bool {
	return r.quality.Completeness < 0.4 || r.quality.Timeliness < 0.4 || r.quality.Relevance < 0.4
}

// Repository is the persistence contract for Resource, implemented by both
// the embedded (in-memory) and server (DynamoDB) store dialects.
type Repository interface {
	Save(ctx context.Context, r *Resource) error
	FindByID(ctx context.Context, id shared.ID) (*Resource, error)
	Delete(ctx context.Context, id shared.ID) error
	List(ctx context.Context, filter ListFilter) ([]*Resource, string, error)
}

// ListFilter supports the filtered-listing endpoints (spec §6): status,
// subject, classification code, and cursor-based pagination.
type ListFilter struct {
	Status             *Status
	Subject            string
	ClassificationCode string
	Cursor             string
	Limit              int
}
