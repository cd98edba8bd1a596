package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/domain/taxonomy"
	"neo-alexandria/internal/errorkit"
)

type storedTaxonomyNode struct {
	id             shared.ID
	name, slug     string
	parentID       *shared.ID
	path           string
	level          int
	keywords       []string
	allowResources bool
	createdAt      time.Time
	updatedAt      time.Time
}

type storedAssignment struct {
	resourceID shared.ID
	nodeID     shared.ID
	confidence float64
	source     taxonomy.AssignmentSource
	createdAt  time.Time
}

type TaxonomyRepository struct{ store *Store }

func NewTaxonomyRepository(store *Store) *TaxonomyRepository { return &TaxonomyRepository{store: store} }

var _ taxonomy.Repository = (*TaxonomyRepository)(nil)

func (r *TaxonomyRepository) Save(_ context.Context, n *taxonomy.Node) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.taxonomy[n.ID()] = &storedTaxonomyNode{
		id: n.ID(), name: n.Name(), slug: n.Slug(), parentID: n.ParentID(), path: n.Path(),
		level: n.Level(), keywords: n.Keywords(), allowResources: n.AllowResources(),
		createdAt: n.CreatedAt(), updatedAt: n.UpdatedAt(),
	}
	return nil
}

func (r *TaxonomyRepository) FindByID(_ context.Context, id shared.ID) (*taxonomy.Node, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.taxonomy[id]
	if !ok {
		return nil, errorkit.NotFoundf("taxonomy node %s not found", id)
	}
	return hydrateNode(s), nil
}

func (r *TaxonomyRepository) FindBySlugAndParent(_ context.Context, slug string, parentID *shared.ID) (*taxonomy.Node, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.taxonomy {
		if s.slug != slug {
			continue
		}
		if samePtr(s.parentID, parentID) {
			return hydrateNode(s), nil
		}
	}
	return nil, errorkit.NotFoundf("taxonomy node with slug %s not found under parent", slug)
}

func (r *TaxonomyRepository) Descendants(_ context.Context, pathPrefix string) ([]*taxonomy.Node, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*taxonomy.Node
	for _, s := range r.store.taxonomy {
		if strings.HasPrefix(s.path, pathPrefix) {
			out = append(out, hydrateNode(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out, nil
}

func (r *TaxonomyRepository) Children(_ context.Context, parentID shared.ID) ([]*taxonomy.Node, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*taxonomy.Node
	for _, s := range r.store.taxonomy {
		if s.parentID != nil && *s.parentID == parentID {
			out = append(out, hydrateNode(s))
		}
	}
	return out, nil
}

func (r *TaxonomyRepository) Delete(_ context.Context, id shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.taxonomy, id)
	return nil
}

func (r *TaxonomyRepository) Tree(_ context.Context) ([]*taxonomy.Node, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*taxonomy.Node, 0, len(r.store.taxonomy))
	for _, s := range r.store.taxonomy {
		out = append(out, hydrateNode(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out, nil
}

func (r *TaxonomyRepository) SaveAssignment(_ context.Context, a taxonomy.Assignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, existing := range r.store.assignments {
		if existing.resourceID == a.ResourceID && existing.nodeID == a.NodeID {
			r.store.assignments[i] = storedAssignment{
				resourceID: a.ResourceID, nodeID: a.NodeID, confidence: a.Confidence,
				source: a.Source, createdAt: a.CreatedAt,
			}
			return nil
		}
	}
	r.store.assignments = append(r.store.assignments, storedAssignment{
		resourceID: a.ResourceID, nodeID: a.NodeID, confidence: a.Confidence,
		source: a.Source, createdAt: a.CreatedAt,
	})
	return nil
}

func (r *TaxonomyRepository) AssignmentsForResource(_ context.Context, resourceID shared.ID) ([]taxonomy.Assignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []taxonomy.Assignment
	for _, a := range r.store.assignments {
		if a.resourceID == resourceID {
			out = append(out, hydrateAssignment(a))
		}
	}
	return out, nil
}

func (r *TaxonomyRepository) AssignmentsForNode(_ context.Context, nodeID shared.ID, sourceFilter *taxonomy.AssignmentSource) ([]taxonomy.Assignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []taxonomy.Assignment
	for _, a := range r.store.assignments {
		if a.nodeID != nodeID {
			continue
		}
		if sourceFilter != nil && a.source != *sourceFilter {
			continue
		}
		out = append(out, hydrateAssignment(a))
	}
	return out, nil
}

func (r *TaxonomyRepository) DeleteAssignmentsForResource(_ context.Context, resourceID shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.assignments[:0]
	for _, a := range r.store.assignments {
		if a.resourceID != resourceID {
			kept = append(kept, a)
		}
	}
	r.store.assignments = kept
	return nil
}

func (r *TaxonomyRepository) HasAssignedResources(_ context.Context, nodeID shared.ID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.assignments {
		if a.nodeID == nodeID {
			return true, nil
		}
	}
	return false, nil
}

func samePtr(a, b *shared.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func hydrateNode(s *storedTaxonomyNode) *taxonomy.Node {
	return taxonomy.Reconstruct(s.id, s.name, s.slug, s.parentID, s.path, s.level, s.keywords,
		s.allowResources, s.createdAt, s.updatedAt)
}

func hydrateAssignment(a storedAssignment) taxonomy.Assignment {
	return taxonomy.Assignment{ResourceID: a.resourceID, NodeID: a.nodeID, Confidence: a.confidence,
		Source: a.source, CreatedAt: a.createdAt}
}
