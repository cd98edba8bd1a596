// Package taxonomy implements the materialized-path classification tree
// (spec §4.7): ancestor queries are O(depth) path-splits, descendant
// queries are O(k) prefix lookups, and a move rewrites every descendant's
// path atomically.
package taxonomy

import (
	"context"
	"strings"
	"time"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

// Node is one entry in the classification tree. Path always equals
// parent.Path + "/" + Slug (root's parent path is ""), and Level is the
// path's depth, per spec §3's invariant.
type Node struct {
	id            shared.ID
	name          string
	slug          string
	parentID      *shared.ID
	path          string
	level         int
	keywords      []string
	allowResources bool

	createdAt time.Time
	updatedAt time.Time
}

func NewRoot(name, slug string, keywords []string, allowResources bool, clock shared.Clock) *Node {
	now := clock.Now()
	return &Node{
		id: shared.NewID(), name: name, slug: slug, path: "/" + slug, level: 1,
		keywords: keywords, allowResources: allowResources, createdAt: now, updatedAt: now,
	}
}

// NewChild builds a node under parent, computing path and level from it.
func NewChild(name, slug string, parent *Node, keywords []string, allowResources bool, clock shared.Clock) *Node {
	now := clock.Now()
	pid := parent.id
	return &Node{
		id: shared.NewID(), name: name, slug: slug, parentID: &pid,
		path: parent.path + "/" + slug, level: parent.level + 1,
		keywords: keywords, allowResources: allowResources, createdAt: now, updatedAt: now,
	}
}

func Reconstruct(id shared.ID, name, slug string, parentID *shared.ID, path string, level int, keywords []string, allowResources bool, createdAt, updatedAt time.Time) *Node {
	return &Node{id: id, name: name, slug: slug, parentID: parentID, path: path, level: level,
		keywords: keywords, allowResources: allowResources, createdAt: createdAt, updatedAt: updatedAt}
}

func (n *Node) ID() shared.ID         { return n.id }
func (n *Node) Name() string          { return n.name }
func (n *Node) Slug() string          { return n.slug }
func (n *Node) ParentID() *shared.ID  { return n.parentID }
func (n *Node) Path() string          { return n.path }
func (n *Node) Level() int            { return n.level }
func (n *Node) Keywords() []string    { return append([]string(nil), n.keywords...) }
func (n *Node) AllowResources() bool  { return n.allowResources }
func (n *Node) CreatedAt() time.Time  { return n.createdAt }
func (n *Node) UpdatedAt() time.Time  { return n.updatedAt }

func (n *Node) Rename(name string, keywords []string, allowResources bool, clock shared.Clock) {
	n.name = name
	n.keywords = keywords
	n.allowResources = allowResources
	n.updatedAt = clock.Now()
}

// AncestorSlugs returns the slugs of this node's ancestors, root first, by
// splitting the materialized path: an O(depth) operation with no
// repository access. A root node has none and gets nil.
func (n *Node) AncestorSlugs() []string {
	parts := strings.Split(strings.Trim(n.path, "/"), "/")
	if len(parts) <= 1 || parts[0] == "" {
		return nil
	}
	return parts[:len(parts)-1]
}

// Reparent recomputes this node's path/level under newParent. Returns the
// new path so the caller can rewrite descendant paths in the same
// transaction (spec: "moving a node rewrites path for all descendants
// atomically").
func (n *Node) Reparent(newParent *Node, clock shared.Clock) (oldPath, newPath string, err error) {
	if newParent != nil && (newParent.id == n.id || strings.HasPrefix(newParent.path+"/", n.path+"/")) {
		return "", "", errorkit.Conflictf("taxonomy_cycle", "cannot move node %s under its own descendant %s", n.id, newParent.id)
	}
	oldPath = n.path
	if newParent == nil {
		n.parentID = nil
		n.path = "/" + n.slug
		n.level = 1
	} else {
		pid := newParent.id
		n.parentID = &pid
		n.path = newParent.path + "/" + n.slug
		n.level = newParent.level + 1
	}
	n.updatedAt = clock.Now()
	return oldPath, n.path, nil
}

// RewriteDescendantPath applies a parent's old->new path prefix swap to a
// descendant node, preserving its relative suffix and recomputing level.
func (n *Node) RewriteDescendantPath(oldParentPath, newParentPath string, clock shared.Clock) {
	suffix := strings.TrimPrefix(n.path, oldParentPath)
	n.path = newParentPath + suffix
	n.level = len(strings.Split(strings.Trim(n.path, "/"), "/"))
	n.updatedAt = clock.Now()
}

// Assignment links a resource to a taxonomy node with a confidence score;
// only source=manual assignments are ground truth for classifier training
// (spec §3).
type Assignment struct {
	ResourceID shared.ID
	NodeID     shared.ID
	Confidence float64
	Source     AssignmentSource
	CreatedAt  time.Time
}

type AssignmentSource string

const (
	SourcePredicted AssignmentSource = "predicted"
	SourceManual    AssignmentSource = "manual"
)

// Repository persists the taxonomy tree and its resource assignments.
type Repository interface {
	Save(ctx context.Context, n *Node) error
	FindByID(ctx context.Context, id shared.ID) (*Node, error)
	FindBySlugAndParent(ctx context.Context, slug string, parentID *shared.ID) (*Node, error)
	// Descendants returns every node whose path has pathPrefix, an O(k)
	// index-backed prefix lookup (spec §4.7).
	Descendants(ctx context.Context, pathPrefix string) ([]*Node, error)
	Children(ctx context.Context, parentID shared.ID) ([]*Node, error)
	Delete(ctx context.Context, id shared.ID) error
	Tree(ctx context.Context) ([]*Node, error)

	SaveAssignment(ctx context.Context, a Assignment) error
	AssignmentsForResource(ctx context.Context, resourceID shared.ID) ([]Assignment, error)
	AssignmentsForNode(ctx context.Context, nodeID shared.ID, sourceFilter *AssignmentSource) ([]Assignment, error)
	DeleteAssignmentsForResource(ctx context.Context, resourceID shared.ID) error
	HasAssignedResources(ctx context.Context, nodeID shared.ID) (bool, error)
}
