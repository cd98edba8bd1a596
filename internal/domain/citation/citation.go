// Package citation implements the Citation entity extracted from a
// resource's archived content (spec §3, §4.10). Resolution and PageRank
// importance are computed over these rows by internal/citationgraph; this
// package owns only the entity and its invariants.
package citation

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/shared"
)

type Type string

const (
	TypeReference Type = "reference"
	TypeDataset   Type = "dataset"
	TypeCode      Type = "code"
	TypeGeneral   Type = "general"
)

// Citation: target_resource_id is set only after resolution, and must
// reference an existing resource, per spec §3. When the target resource is
// later deleted, target_resource_id reverts to nil (spec §5 scenario 3)
// rather than the citation row being deleted.
type Citation struct {
	id               shared.ID
	sourceResourceID shared.ID
	targetURL        string
	targetResourceID *shared.ID
	citationType     Type
	contextSnippet   string
	position         int
	importance       *float64

	createdAt time.Time
}

func New(sourceResourceID shared.ID, targetURL string, citationType Type, contextSnippet string, position int, clock shared.Clock) *Citation {
	return &Citation{
		id: shared.NewID(), sourceResourceID: sourceResourceID, targetURL: targetURL,
		citationType: citationType, contextSnippet: contextSnippet, position: position,
		createdAt: clock.Now(),
	}
}

func Reconstruct(id, sourceResourceID shared.ID, targetURL string, targetResourceID *shared.ID, citationType Type, contextSnippet string, position int, importance *float64, createdAt time.Time) *Citation {
	return &Citation{id: id, sourceResourceID: sourceResourceID, targetURL: targetURL,
		targetResourceID: targetResourceID, citationType: citationType, contextSnippet: contextSnippet,
		position: position, importance: importance, createdAt: createdAt}
}

func (c *Citation) ID() shared.ID                { return c.id }
func (c *Citation) SourceResourceID() shared.ID  { return c.sourceResourceID }
func (c *Citation) TargetURL() string            { return c.targetURL }
func (c *Citation) TargetResourceID() *shared.ID { return c.targetResourceID }
func (c *Citation) Type() Type                   { return c.citationType }
func (c *Citation) ContextSnippet() string        { return c.contextSnippet }
func (c *Citation) Position() int                { return c.position }
func (c *Citation) Importance() *float64         { return c.importance }
func (c *Citation) CreatedAt() time.Time         { return c.createdAt }

// Resolve links the citation to an existing resource found by normalized
// URL match (spec §4.10's resolution job).
func (c *Citation) Resolve(targetID shared.ID) {
	id := targetID
	c.targetResourceID = &id
}

// Unresolve clears the target, used when the referenced resource is
// deleted (spec §5 scenario 3: "citations ... now have
// target_resource_id=null").
func (c *Citation) Unresolve() {
	c.targetResourceID = nil
}

func (c *Citation) SetImportance(score float64) {
	c.importance = &score
}

// ClassifyByURL derives a citation Type from a target URL's domain/extension,
// per spec §4.10.
func ClassifyByURL(url string) Type {
	switch {
	case hasAnySuffix(url, ".csv", ".json", ".parquet", ".zip") || contains(url, "zenodo.org") || contains(url, "data.gov"):
		return TypeDataset
	case contains(url, "github.com") || contains(url, "gitlab.com") || hasAnySuffix(url, ".py", ".go", ".ipynb"):
		return TypeCode
	case contains(url, "doi.org") || contains(url, "arxiv.org") || hasAnySuffix(url, ".pdf"):
		return TypeReference
	default:
		return TypeGeneral
	}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if len(s) >= len(suf) && s[len(s)-len(suf):] == suf {
			return true
		}
	}
	return false
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// Repository persists citations.
type Repository interface {
	Save(ctx context.Context, c *Citation) error
	FindByID(ctx context.Context, id shared.ID) (*Citation, error)
	ListBySource(ctx context.Context, sourceResourceID shared.ID) ([]*Citation, error)
	ListByTarget(ctx context.Context, targetResourceID shared.ID) ([]*Citation, error)
	// Unresolved returns citations awaiting resolution (target_resource_id
	// is nil), for the idempotent resolve job.
	Unresolved(ctx context.Context) ([]*Citation, error)
	All(ctx context.Context) ([]*Citation, error)
	UnresolveByTarget(ctx context.Context, targetResourceID shared.ID) error
	DeleteBySource(ctx context.Context, sourceResourceID shared.ID) error
}
