package memory

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/collection"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

type storedCollection struct {
	id          shared.ID
	name        string
	description string
	visibility  collection.Visibility
	parent      *shared.ID
	owner       string
	members     []shared.ID
	aggregate   []float32
	createdAt   time.Time
	updatedAt   time.Time
}

type CollectionRepository struct{ store *Store }

func NewCollectionRepository(store *Store) *CollectionRepository {
	return &CollectionRepository{store: store}
}

var _ collection.Repository = (*CollectionRepository)(nil)

func (r *CollectionRepository) Save(_ context.Context, c *collection.Collection) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.collections[c.ID()] = &storedCollection{
		id: c.ID(), name: c.Name(), description: c.Description(), visibility: c.Visibility(),
		parent: c.Parent(), owner: c.Owner(), members: c.Members(), aggregate: c.AggregateEmbedding(),
		createdAt: c.CreatedAt(), updatedAt: c.UpdatedAt(),
	}
	return nil
}

func (r *CollectionRepository) FindByID(_ context.Context, id shared.ID) (*collection.Collection, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.collections[id]
	if !ok {
		return nil, errorkit.NotFoundf("collection %s not found", id)
	}
	return hydrateCollection(s), nil
}

func (r *CollectionRepository) Delete(_ context.Context, id shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.collections, id)
	return nil
}

func (r *CollectionRepository) ListByOwner(_ context.Context, owner string) ([]*collection.Collection, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*collection.Collection
	for _, s := range r.store.collections {
		if s.owner == owner {
			out = append(out, hydrateCollection(s))
		}
	}
	return out, nil
}

// ListContaining finds collections holding resourceID as a member, used to
// cascade-remove it on resource delete (spec §5 scenario 3).
func (r *CollectionRepository) ListContaining(_ context.Context, resourceID shared.ID) ([]*collection.Collection, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*collection.Collection
	for _, s := range r.store.collections {
		for _, m := range s.members {
			if m == resourceID {
				out = append(out, hydrateCollection(s))
				break
			}
		}
	}
	return out, nil
}

func hydrateCollection(s *storedCollection) *collection.Collection {
	return collection.Reconstruct(s.id, s.name, s.description, s.visibility, s.parent, s.owner,
		s.members, s.aggregate, s.createdAt, s.updatedAt)
}
