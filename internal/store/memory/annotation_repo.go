package memory

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/annotation"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

type storedAnnotation struct {
	id, resourceID  shared.ID
	start, end      int
	highlightedText string
	note            string
	tags            []string
	color           string
	noteEmbedding   []float32
	owner           string
	shared_         bool
	createdAt       time.Time
	updatedAt       time.Time
}

type AnnotationRepository struct{ store *Store }

func NewAnnotationRepository(store *Store) *AnnotationRepository {
	return &AnnotationRepository{store: store}
}

var _ annotation.Repository = (*AnnotationRepository)(nil)

func (r *AnnotationRepository) Save(_ context.Context, a *annotation.Annotation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.annotations[a.ID()] = &storedAnnotation{
		id: a.ID(), resourceID: a.ResourceID(), start: a.StartOffset(), end: a.EndOffset(),
		highlightedText: a.HighlightedText(), note: a.Note(), tags: a.Tags(), color: a.Color(),
		noteEmbedding: a.NoteEmbedding(), owner: a.Owner(), shared_: a.Shared(),
		createdAt: a.CreatedAt(), updatedAt: a.UpdatedAt(),
	}
	r.store.stageEvents(a.PullEvents())
	return nil
}

func (r *AnnotationRepository) FindByID(_ context.Context, id shared.ID) (*annotation.Annotation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.annotations[id]
	if !ok {
		return nil, errorkit.NotFoundf("annotation %s not found", id)
	}
	return hydrateAnnotation(s), nil
}

func (r *AnnotationRepository) ListByResource(_ context.Context, resourceID shared.ID) ([]*annotation.Annotation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*annotation.Annotation
	for _, s := range r.store.annotations {
		if s.resourceID == resourceID {
			out = append(out, hydrateAnnotation(s))
		}
	}
	return out, nil
}

func (r *AnnotationRepository) Delete(_ context.Context, id shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.annotations, id)
	return nil
}

// DeleteByResource cascade-deletes every annotation anchored to resourceID
// (spec §5 scenario 3).
func (r *AnnotationRepository) DeleteByResource(_ context.Context, resourceID shared.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, s := range r.store.annotations {
		if s.resourceID == resourceID {
			delete(r.store.annotations, id)
		}
	}
	return nil
}

func hydrateAnnotation(s *storedAnnotation) *annotation.Annotation {
	return annotation.Reconstruct(s.id, s.resourceID, s.start, s.end, s.highlightedText, s.note,
		s.tags, s.color, s.noteEmbedding, s.owner, s.shared_, s.createdAt, s.updatedAt)
}
