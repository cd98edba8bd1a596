// Package collection implements the Collection aggregate: a named,
// user-curated container of resources with an aggregate embedding derived
// from its members (spec §3).
package collection

import (
	"context"
	"math"
	"time"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
	VisibilityPublic  Visibility = "public"
)

// Collection holds a unique, cycle-free set of resource ids plus an
// aggregate embedding kept in sync with membership (spec §3, invariant 4:
// "aggregate_embedding is the L2-normalized mean of current members' dense
// vectors, or null if empty").
type Collection struct {
	id          shared.ID
	name        string
	description string
	visibility  Visibility
	parent      *shared.ID
	owner       string
	members     map[shared.ID]struct{}
	aggregate   []float32 // nil when empty

	createdAt time.Time
	updatedAt time.Time
}

func New(name, description string, visibility Visibility, parent *shared.ID, owner string, clock shared.Clock) *Collection {
	now := clock.Now()
	return &Collection{
		id: shared.NewID(), name: name, description: description, visibility: visibility,
		parent: parent, owner: owner, members: make(map[shared.ID]struct{}),
		createdAt: now, updatedAt: now,
	}
}

func Reconstruct(id shared.ID, name, description string, visibility Visibility, parent *shared.ID, owner string, memberIDs []shared.ID, aggregate []float32, createdAt, updatedAt time.Time) *Collection {
	members := make(map[shared.ID]struct{}, len(memberIDs))
	for _, m := range memberIDs {
		members[m] = struct{}{}
	}
	return &Collection{
		id: id, name: name, description: description, visibility: visibility, parent: parent,
		owner: owner, members: members, aggregate: aggregate, createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (c *Collection) ID() shared.ID           { return c.id }
func (c *Collection) Name() string            { return c.name }
func (c *Collection) Description() string     { return c.description }
func (c *Collection) Visibility() Visibility  { return c.visibility }
func (c *Collection) Parent() *shared.ID      { return c.parent }
func (c *Collection) Owner() string           { return c.owner }
func (c *Collection) AggregateEmbedding() []float32 { return c.aggregate }
func (c *Collection) CreatedAt() time.Time    { return c.createdAt }
func (c *Collection) UpdatedAt() time.Time    { return c.updatedAt }

func (c *Collection) Members() []shared.ID {
	ids := make([]shared.ID, 0, len(c.members))
	for id := range c.members {
		ids = append(ids, id)
	}
	return ids
}

func (c *Collection) Has(id shared.ID) bool {
	_, ok := c.members[id]
	return ok
}

// AddMember inserts a resource id (a no-op if already present, keeping
// membership a set) and recomputes the aggregate embedding.
func (c *Collection) AddMember(id shared.ID, memberVectors map[shared.ID][]float32, clock shared.Clock) error {
	if c.parent != nil && *c.parent == id {
		return errorkit.Conflictf("collection_cycle", "collection %s cannot contain its own ancestor %s", c.id, id)
	}
	c.members[id] = struct{}{}
	c.recomputeAggregate(memberVectors)
	c.updatedAt = clock.Now()
	return nil
}

// RemoveMember drops a resource id, including during a resource's cascade
// delete (spec §5 scenario 3).
func (c *Collection) RemoveMember(id shared.ID, memberVectors map[shared.ID][]float32, clock shared.Clock) {
	if _, ok := c.members[id]; !ok {
		return
	}
	delete(c.members, id)
	c.recomputeAggregate(memberVectors)
	c.updatedAt = clock.Now()
}

// recomputeAggregate takes the caller-supplied dense vectors for current
// members (the collection does not own resource vectors) and recomputes the
// L2-normalized mean, or nil when the collection is empty.
func (c *Collection) recomputeAggregate(memberVectors map[shared.ID][]float32) {
	if len(c.members) == 0 {
		c.aggregate = nil
		return
	}
	var dim int
	for _, v := range memberVectors {
		dim = len(v)
		break
	}
	if dim == 0 {
		c.aggregate = nil
		return
	}
	sum := make([]float64, dim)
	n := 0
	for id := range c.members {
		v, ok := memberVectors[id]
		if !ok {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		n++
	}
	if n == 0 {
		c.aggregate = nil
		return
	}
	mean := make([]float32, dim)
	var norm float64
	for i := range sum {
		m := sum[i] / float64(n)
		mean[i] = float32(m)
		norm += m * m
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range mean {
			mean[i] = float32(float64(mean[i]) / norm)
		}
	}
	c.aggregate = mean
}

// Repository persists collections.
type Repository interface {
	Save(ctx context.Context, c *Collection) error
	FindByID(ctx context.Context, id shared.ID) (*Collection, error)
	Delete(ctx context.Context, id shared.ID) error
	ListByOwner(ctx context.Context, owner string) ([]*Collection, error)
	// ListContaining finds every collection with resourceID as a member,
	// used for cascade-removal on resource delete.
	ListContaining(ctx context.Context, resourceID shared.ID) ([]*Collection, error)
}
