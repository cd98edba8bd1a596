package memory

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

type storedCitation struct {
	id, sourceResourceID shared.ID
	targetURL            string
	targetResourceID     *shared.ID
	citationType         citation.Type
	contextSnippet       string
	position             int
	importance           *float64
	createdAt            time.Time
}

type CitationRepository struct{ store *Store }

func NewCitationRepository(store *Store) *CitationRepository { return &CitationRepository{store: store} }

var _ citation.Repository = (*CitationRepository)(nil)

func (r *CitationRepository) Save(_ context.Context, c *citation.Citation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.citations[c.ID()] = &storedCitation{
		id: c.ID(), sourceResourceID: c.SourceResourceID(), targetURL: c.TargetURL(),
		targetResourceID: c.TargetResourceID(), citationType: c.Type(), contextSnippet: c.ContextSnippet(),
		position: c.Position(), importance: c.Importance(), createdAt: c.CreatedAt(),
	}
	return nil
}

func (r *CitationRepository) FindByID(_ context.Context, id shared.ID) (*citation.Citation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.citations[id]
	if !ok {
		return nil, errorkit.NotFoundf("citation %s not found", id)
	}
	return hydrateCitation(s), nil
}

func (r *CitationRepository) ListBySource(_ context.Context, sourceResourceID shared.ID) ([]*citation.Citation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*citation.Citation
	for _, s := range r.store.citations {
		if s.sourceResourceID == sourceResourceID {
			out = append(out, hydrateCitation(s))
		}
	}
	return out, nil
}

func (r *CitationRepository) ListByTarget(_ context.Context, targetResourceID shared.ID) ([]*citation.Citation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*citation.Citation
	for _, s := range r.store.citations {
		if s.targetResourceID != nil && *s.targetResourceID == targetResourceID {
			out = append(out, hydrateCitation(s))
		}
	}
	return out, nil
}

func (r *CitationRepository) Unresolved(_ context.Context) ([]*citation.Citation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*citation.Citation
	for _, s := range r.store.citations {
		if s.targetResourceID == nil {
			out = append(out, hydrateCitation(s))
		}
	}
	return out, nil
}

func (r *CitationRepository) All(_ context.Context) ([]*citation.Citation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*citation.Citation, 0, len(r.store.citations))
	for _, s := range r.store.citations {
		out = append(out, hydrateCitation(s))
	}
	return out, nil
}

// UnresolveByTarget reverts target_resource_id to nil for every citation
// pointing at targetResourceID, run during a resource's cascade delete
// (spec §5 scenario 3).
func (r *CitationRepository) UnresolveByTarget(_ context.Context, targetResourceID shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.citations {
		if s.targetResourceID != nil && *s.targetResourceID == targetResourceID {
			s.targetResourceID = nil
		}
	}
	return nil
}

func (r *CitationRepository) DeleteBySource(_ context.Context, sourceResourceID shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, s := range r.store.citations {
		if s.sourceResourceID == sourceResourceID {
			delete(r.store.citations, id)
		}
	}
	return nil
}

func hydrateCitation(s *storedCitation) *citation.Citation {
	return citation.Reconstruct(s.id, s.sourceResourceID, s.targetURL, s.targetResourceID, s.citationType,
		s.contextSnippet, s.position, s.importance, s.createdAt)
}
