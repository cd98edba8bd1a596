// Package graph computes and queries the multi-signal knowledge graph
// (spec §4.9): a derived edge list over resources, scored from dense vector
// similarity, subject overlap, and classification agreement.
package graph

import (
	"context"
	"math"
	"sort"

	"neo-alexandria/internal/domain/shared"
)

const (
	weightVector         = 0.6
	weightTags           = 0.3
	weightClassification = 0.1
	defaultMinThreshold  = 0.20

	overviewMaxNodes = 100
	overviewMaxDepth = 2
)

// Node is the minimal projection of a resource the graph needs to score and
// display an edge.
type Node struct {
	ID                 shared.ID
	ClassificationCode string
	Subjects           []string
	Vector             []float32
}

// Edge is a scored, undirected relationship between two resources.
type Edge struct {
	A, B   shared.ID
	Score  float64
	Vector float64 // the cosine component alone, used for overview thresholding and tie-break
}

// Weights lets the min-edge-threshold be reconfigured (config.Graph in
// SPEC_FULL.md's ambient config layer); the three scoring coefficients
// themselves are fixed by spec §4.9.
type Weights struct {
	MinThreshold float64
}

var DefaultWeights = Weights{MinThreshold: defaultMinThreshold}

// Score computes edge(A,B) per spec §4.9.
func Score(a, b Node) Edge {
	vec := cosine(a.Vector, b.Vector)
	tags := jaccard(a.Subjects, b.Subjects)
	var classMatch float64
	if a.ClassificationCode != "" && a.ClassificationCode == b.ClassificationCode {
		classMatch = 1
	}
	score := weightVector*vec + weightTags*tags + weightClassification*classMatch
	return Edge{A: a.ID, B: b.ID, Score: score, Vector: vec}
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	inter := 0
	union := make(map[string]struct{}, len(a)+len(b))
	for s := range set {
		union[s] = struct{}{}
	}
	for _, s := range b {
		union[s] = struct{}{}
		if _, ok := set[s]; ok {
			inter++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// NodeProvider supplies the node population an edge recompute needs to scan.
// Implemented by the wiring layer over the resource repository.
type NodeProvider interface {
	All(ctx context.Context) ([]Node, error)
	Get(ctx context.Context, id shared.ID) (Node, error)
}

// Store persists the derived edge list, keyed by either endpoint, so
// neighbors(id) and overview() are cheap lookups rather than full rescans.
type Store interface {
	ReplaceEdgesFor(ctx context.Context, id shared.ID, edges []Edge) error
	EdgesFor(ctx context.Context, id shared.ID) ([]Edge, error)
	AllEdges(ctx context.Context) ([]Edge, error)
	DeleteEdgesFor(ctx context.Context, id shared.ID) error
}

// Engine recomputes and queries the knowledge graph.
type Engine struct {
	nodes   NodeProvider
	store   Store
	weights Weights
}

func NewEngine(nodes NodeProvider, store Store, weights Weights) *Engine {
	if weights.MinThreshold <= 0 {
		weights = DefaultWeights
	}
	return &Engine{nodes: nodes, store: store, weights: weights}
}

// RecomputeFor rescans every other node and rebuilds the edge list incident
// to id, dropping edges below MinThreshold (spec §4.9: "recomputed lazily
// for a node on demand or by scheduled batch task on resource.updated/
// resource.deleted").
func (e *Engine) RecomputeFor(ctx context.Context, id shared.ID) error {
	target, err := e.nodes.Get(ctx, id)
	if err != nil {
		return err
	}
	all, err := e.nodes.All(ctx)
	if err != nil {
		return err
	}

	edges := make([]Edge, 0, len(all))
	for _, other := range all {
		if other.ID == id {
			continue
		}
		edge := Score(target, other)
		if edge.Score < e.weights.MinThreshold {
			continue
		}
		edges = append(edges, edge)
	}
	return e.store.ReplaceEdgesFor(ctx, id, edges)
}

// RemoveNode drops every edge incident to a deleted resource.
func (e *Engine) RemoveNode(ctx context.Context, id shared.ID) error {
	return e.store.DeleteEdgesFor(ctx, id)
}

// Neighbor pairs an edge's score with the id of the node on the other side.
type Neighbor struct {
	ID    shared.ID
	Score float64
	Edge  Edge
}

// Neighbors returns the top-limit highest-scoring edges for id, ties broken
// by descending vector similarity then ascending id (spec §4.9).
func (e *Engine) Neighbors(ctx context.Context, id shared.ID, limit int) ([]Neighbor, error) {
	edges, err := e.store.EdgesFor(ctx, id)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, len(edges))
	for i, edge := range edges {
		other := edge.A
		if other == id {
			other = edge.B
		}
		neighbors[i] = Neighbor{ID: other, Score: edge.Score, Edge: edge}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Score != neighbors[j].Score {
			return neighbors[i].Score > neighbors[j].Score
		}
		if neighbors[i].Edge.Vector != neighbors[j].Edge.Vector {
			return neighbors[i].Edge.Vector > neighbors[j].Edge.Vector
		}
		return neighbors[i].ID < neighbors[j].ID
	})

	if limit > 0 && limit < len(neighbors) {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}

// Overview is a bounded global-graph projection for visualization.
type Overview struct {
	Nodes []shared.ID
	Edges []Edge
}

// OverviewQuery returns the top-limit global edges with vector component
// at least vectorThreshold, taken in descending score order (spec §4.9).
// An edge touching no node taken so far starts a new group at depth 0; an
// edge more than overviewMaxDepth hops from its group's first edge is
// skipped, and once overviewMaxNodes nodes are taken no edge that brings
// in a new node is added.
func (e *Engine) OverviewQuery(ctx context.Context, limit int, vectorThreshold float64) (*Overview, error) {
	all, err := e.store.AllEdges(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Edge, 0, len(all))
	for _, edge := range all {
		if edge.Vector >= vectorThreshold {
			candidates = append(candidates, edge)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}

	nodeSet := map[shared.ID]struct{}{}
	depth := map[shared.ID]int{}
	edges := make([]Edge, 0, len(candidates))
	for _, edge := range candidates {
		da, aok := depth[edge.A]
		db, bok := depth[edge.B]
		nextDepth := 0
		if aok {
			nextDepth = da + 1
		} else if bok {
			nextDepth = db + 1
		}
		if nextDepth > overviewMaxDepth {
			continue
		}
		if len(nodeSet) >= overviewMaxNodes {
			if _, aIn := nodeSet[edge.A]; !aIn {
				continue
			}
			if _, bIn := nodeSet[edge.B]; !bIn {
				continue
			}
		}
		nodeSet[edge.A] = struct{}{}
		nodeSet[edge.B] = struct{}{}
		if !aok {
			depth[edge.A] = nextDepth
		}
		if !bok {
			depth[edge.B] = nextDepth
		}
		edges = append(edges, edge)
	}

	nodes := make([]shared.ID, 0, len(nodeSet))
	for id := range nodeSet {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	return &Overview{Nodes: nodes, Edges: edges}, nil
}
