package app

import (
	"context"

	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/graph"
	"neo-alexandria/internal/search/dense"
	"neo-alexandria/internal/search/hybrid"
)

// ResourceMetadataProvider adapts the resource repository to
// hybrid.MetadataProvider, resolving views only for a fused candidate pool
// rather than the whole corpus. ReadStatus has no backing field on the
// Resource aggregate (no reading-progress concept exists anywhere in the
// domain), so it is left empty here rather than invented.
type ResourceMetadataProvider struct {
	repo resource.Repository
}

func NewResourceMetadataProvider(repo resource.Repository) *ResourceMetadataProvider {
	return &ResourceMetadataProvider{repo: repo}
}

var _ hybrid.MetadataProvider = (*ResourceMetadataProvider)(nil)

func (p *ResourceMetadataProvider) Get(ctx context.Context, ids []shared.ID) (map[shared.ID]hybrid.ResourceView, error) {
	out := make(map[shared.ID]hybrid.ResourceView, len(ids))
	for _, id := range ids {
		res, err := p.repo.FindByID(ctx, id)
		if err != nil {
			continue
		}
		out[id] = hybrid.ResourceView{
			ID:                 res.ID(),
			Title:              res.Title(),
			Description:        res.Description(),
			ClassificationCode: res.ClassificationCode(),
			Language:           res.Language(),
			Type:               res.Type(),
			Quality:            res.Quality().Overall,
			Subjects:           res.Subjects(),
			CreatedAt:          res.CreatedAt(),
			UpdatedAt:          res.UpdatedAt(),
		}
	}
	return out, nil
}

// ResourceNodeProvider adapts the resource repository and dense index to
// graph.NodeProvider: a graph node is a resource's classification, subjects,
// and current dense vector.
type ResourceNodeProvider struct {
	repo  resource.Repository
	dense dense.Index
}

func NewResourceNodeProvider(repo resource.Repository, den dense.Index) *ResourceNodeProvider {
	return &ResourceNodeProvider{repo: repo, dense: den}
}

var _ graph.NodeProvider = (*ResourceNodeProvider)(nil)

func (p *ResourceNodeProvider) All(ctx context.Context) ([]graph.Node, error) {
	var out []graph.Node
	cursor := ""
	for {
		page, next, err := p.repo.List(ctx, resource.ListFilter{Cursor: cursor, Limit: 200})
		if err != nil {
			return nil, err
		}
		for _, res := range page {
			node, err := p.toNode(ctx, res)
			if err != nil {
				return nil, err
			}
			out = append(out, node)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return out, nil
}

func (p *ResourceNodeProvider) Get(ctx context.Context, id shared.ID) (graph.Node, error) {
	res, err := p.repo.FindByID(ctx, id)
	if err != nil {
		return graph.Node{}, err
	}
	return p.toNode(ctx, res)
}

func (p *ResourceNodeProvider) toNode(ctx context.Context, res *resource.Resource) (graph.Node, error) {
	vec, _, err := p.dense.Get(ctx, res.ID())
	if err != nil {
		return graph.Node{}, err
	}
	return graph.Node{
		ID:                 res.ID(),
		ClassificationCode: res.ClassificationCode(),
		Subjects:           res.Subjects(),
		Vector:             vec,
	}, nil
}
