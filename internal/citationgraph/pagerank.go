package citationgraph

import (
	"context"
	"sort"

	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/shared"
)

const (
	damping       = 0.85
	maxIterations = 100
	convergence   = 1e-6
)

// PageRank computes importance over the directed graph of resolved citations
// (source_resource_id -> target_resource_id), damping 0.85, up to 100
// iterations, convergence 1e-6, scores normalized to [0,1] across all nodes
// (spec §4.10).
func PageRank(resolved []*citation.Citation) map[shared.ID]float64 {
	nodes, outEdges, inEdges := buildGraph(resolved)
	n := len(nodes)
	if n == 0 {
		return map[shared.ID]float64{}
	}

	rank := make(map[shared.ID]float64, n)
	for _, id := range nodes {
		rank[id] = 1.0 / float64(n)
	}

	outDegree := make(map[shared.ID]int, n)
	for id, targets := range outEdges {
		outDegree[id] = len(targets)
	}

	for iter := 0; iter < maxIterations; iter++ {
		next := make(map[shared.ID]float64, n)
		danglingMass := 0.0
		for _, id := range nodes {
			if outDegree[id] == 0 {
				danglingMass += rank[id]
			}
		}

		base := (1 - damping) / float64(n)
		danglingShare := damping * danglingMass / float64(n)
		for _, id := range nodes {
			next[id] = base + danglingShare
		}
		for _, id := range nodes {
			for _, source := range inEdges[id] {
				if outDegree[source] > 0 {
					next[id] += damping * rank[source] / float64(outDegree[source])
				}
			}
		}

		delta := 0.0
		for _, id := range nodes {
			diff := next[id] - rank[id]
			if diff < 0 {
				diff = -diff
			}
			delta += diff
		}
		rank = next
		if delta < convergence {
			break
		}
	}

	return normalize(rank)
}

func buildGraph(resolved []*citation.Citation) (nodes []shared.ID, outEdges, inEdges map[shared.ID][]shared.ID) {
	seen := map[shared.ID]struct{}{}
	outEdges = map[shared.ID][]shared.ID{}
	inEdges = map[shared.ID][]shared.ID{}

	addNode := func(id shared.ID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			nodes = append(nodes, id)
		}
	}

	for _, c := range resolved {
		target := c.TargetResourceID()
		if target == nil {
			continue
		}
		source := c.SourceResourceID()
		addNode(source)
		addNode(*target)
		outEdges[source] = append(outEdges[source], *target)
		inEdges[*target] = append(inEdges[*target], source)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes, outEdges, inEdges
}

func normalize(rank map[shared.ID]float64) map[shared.ID]float64 {
	max := 0.0
	for _, v := range rank {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return rank
	}
	out := make(map[shared.ID]float64, len(rank))
	for id, v := range rank {
		out[id] = v / max
	}
	return out
}

// Direction selects which side of a resource's citation edges to report.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionBoth     Direction = "both"
)

// Summary is the per-resource citation query result (spec §4.10): counts
// plus the citations themselves, filtered by direction.
type Summary struct {
	Inbound  []*citation.Citation
	Outbound []*citation.Citation
}

// QueryResource gathers a resource's inbound and/or outbound citations.
func QueryResource(ctx context.Context, repo citation.Repository, resourceID shared.ID, dir Direction) (*Summary, error) {
	summary := &Summary{}
	if dir == DirectionOutbound || dir == DirectionBoth {
		out, err := repo.ListBySource(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		summary.Outbound = out
	}
	if dir == DirectionInbound || dir == DirectionBoth {
		in, err := repo.ListByTarget(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		summary.Inbound = in
	}
	return summary, nil
}

const (
	subgraphMaxNodes = 100
	subgraphMaxDepth = 2
)

// SubgraphNode is one node in a bounded citation-subgraph visualization.
type SubgraphNode struct {
	ID         shared.ID
	Importance float64
}

// SubgraphEdge is a directed citation edge in the visualization.
type SubgraphEdge struct {
	Source, Target shared.ID
}

// Subgraph is a breadth-first expansion from a seed resource, bounded to
// subgraphMaxNodes nodes and subgraphMaxDepth hops (spec §4.10).
func Subgraph(seed shared.ID, resolved []*citation.Citation, importance map[shared.ID]float64) ([]SubgraphNode, []SubgraphEdge) {
	outEdges := map[shared.ID][]shared.ID{}
	for _, c := range resolved {
		if target := c.TargetResourceID(); target != nil {
			outEdges[c.SourceResourceID()] = append(outEdges[c.SourceResourceID()], *target)
		}
	}

	visited := map[shared.ID]int{seed: 0}
	order := []shared.ID{seed}
	var edges []SubgraphEdge
	queue := []shared.ID{seed}

	for len(queue) > 0 && len(visited) < subgraphMaxNodes {
		current := queue[0]
		queue = queue[1:]
		depth := visited[current]
		if depth >= subgraphMaxDepth {
			continue
		}
		for _, next := range outEdges[current] {
			edges = append(edges, SubgraphEdge{Source: current, Target: next})
			if _, ok := visited[next]; !ok {
				if len(visited) >= subgraphMaxNodes {
					continue
				}
				visited[next] = depth + 1
				order = append(order, next)
				queue = append(queue, next)
			}
		}
	}

	nodes := make([]SubgraphNode, len(order))
	for i, id := range order {
		nodes[i] = SubgraphNode{ID: id, Importance: importance[id]}
	}
	return nodes, edges
}
