package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

// storedResource is the flattened snapshot persisted for a Resource
// aggregate; Reconstruct rebuilds the aggregate from it on read.
type storedResource struct {
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
	archiveBlob string
	status      resource.Status
	quality     resource.QualityDimensions
	models      resource.ModelVersions
	hasDense    bool
	hasSparse   bool
	createdAt   time.Time
	updatedAt   time.Time
	version     int
}

type ResourceRepository struct{ store *Store }

func NewResourceRepository(store *Store) *ResourceRepository { return &ResourceRepository{store: store} }

var _ resource.Repository = (*ResourceRepository)(nil)

func (r *ResourceRepository) Save(_ context.Context, res *resource.Resource) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.resources[res.ID()] = &storedResource{
		id: res.ID(), title: res.Title(), description: res.Description(), creator: res.Creator(),
		publisher: res.Publisher(), originURL: res.OriginURL(), language: res.Language(),
		resType: res.Type(), subjects: res.Subjects(), classCode: res.ClassificationCode(),
		archiveBlob: res.ArchiveBlob(), status: res.Status(), quality: res.Quality(), models: res.Models(),
		hasDense: res.HasDenseVector(), hasSparse: res.HasSparseVector(),
		createdAt: res.CreatedAt(), updatedAt: res.UpdatedAt(), version: res.Version(),
	}
	r.store.stageEvents(res.PullEvents())
	return nil
}

func (r *ResourceRepository) FindByID(_ context.Context, id shared.ID) (*resource.Resource, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.resources[id]
	if !ok {
		return nil, errorkit.NotFoundf("resource %s not found", id)
	}
	return hydrateResource(s), nil
}

func (r *ResourceRepository) Delete(_ context.Context, id shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.resources[id]; !ok {
		return errorkit.NotFoundf("resource %s not found", id)
	}
	delete(r.store.resources, id)
	return nil
}

func (r *ResourceRepository) List(_ context.Context, filter resource.ListFilter) ([]*resource.Resource, string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all := make([]*storedResource, 0, len(r.store.resources))
	for _, s := range r.store.resources {
		if filter.Status != nil && s.status != *filter.Status {
			continue
		}
		if filter.ClassificationCode != "" && s.classCode != filter.ClassificationCode {
			continue
		}
		if filter.Subject != "" {
			found := false
			for _, subj := range s.subjects {
				if strings.EqualFold(subj, filter.Subject) {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	start := 0
	if filter.Cursor != "" {
		for i, s := range all {
			if string(s.id) == filter.Cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	if start > len(all) {
		start = len(all)
	}
	page := all[start:end]

	out := make([]*resource.Resource, 0, len(page))
	for _, s := range page {
		out = append(out, hydrateResource(s))
	}
	nextCursor := ""
	if end < len(all) {
		nextCursor = string(all[end-1].id)
	}
	return out, nextCursor, nil
}

func hydrateResource(s *storedResource) *resource.Resource {
	return resource.Reconstruct(s.id, s.title, s.description, s.creator, s.publisher, s.originURL,
		s.language, s.resType, s.subjects, s.classCode, s.archiveBlob, s.status, s.quality, s.models,
		s.hasDense, s.hasSparse, s.createdAt, s.updatedAt, s.version)
}
