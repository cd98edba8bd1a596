// Package annotation implements the Annotation entity: a user highlight and
// optional note anchored to a frozen text offset within a resource's
// archived text (spec §3).
package annotation

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

// Annotation anchors highlighted_text to [startOffset, endOffset) within the
// resource's archived text as it existed at creation time. Offsets are
// frozen: updates may change note/tags/color but never the span.
type Annotation struct {
	id              shared.ID
	resourceID      shared.ID
	startOffset     int
	endOffset       int
	highlightedText string
	note            string
	tags            []string
	color           string
	noteEmbedding   []float32
	owner           string
	shared_         bool

	createdAt time.Time
	updatedAt time.Time

	events []shared.Event
}

// New validates the offset invariants from spec §5 (0 <= start < end <=
// len(archivedText), counted in runes) and takes highlightedText as that
// slice of the archived text.
func New(resourceID shared.ID, archivedText string, startOffset, endOffset int, note string, tags []string, color, owner string, shared_ bool, clock shared.Clock) (*Annotation, error) {
	if startOffset < 0 || endOffset <= startOffset || endOffset > len([]rune(archivedText)) {
		return nil, errorkit.Validationf("annotation offsets [%d,%d) out of bounds for archived text of length %d", startOffset, endOffset, len([]rune(archivedText)))
	}
	runes := []rune(archivedText)
	highlighted := string(runes[startOffset:endOffset])

	now := clock.Now()
	a := &Annotation{
		id:              shared.NewID(),
		resourceID:      resourceID,
		startOffset:     startOffset,
		endOffset:       endOffset,
		highlightedText: highlighted,
		note:            note,
		tags:            tags,
		color:           color,
		owner:           owner,
		shared_:         shared_,
		createdAt:       now,
		updatedAt:       now,
	}
	a.events = append(a.events, shared.NewEvent(clock, shared.EventAnnotationCreated, map[string]any{
		"annotation_id": a.id.String(),
		"resource_id":   resourceID.String(),
		"owner":         owner,
	}))
	return a, nil
}

func Reconstruct(id, resourceID shared.ID, startOffset, endOffset int, highlightedText, note string, tags []string, color string, noteEmbedding []float32, owner string, shared_ bool, createdAt, updatedAt time.Time) *Annotation {
	return &Annotation{
		id: id, resourceID: resourceID, startOffset: startOffset, endOffset: endOffset,
		highlightedText: highlightedText, note: note, tags: tags, color: color,
		noteEmbedding: noteEmbedding, owner: owner, shared_: shared_,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (a *Annotation) ID() shared.ID            { return a.id }
func (a *Annotation) ResourceID() shared.ID    { return a.resourceID }
func (a *Annotation) StartOffset() int         { return a.startOffset }
func (a *Annotation) EndOffset() int           { return a.endOffset }
func (a *Annotation) HighlightedText() string  { return a.highlightedText }
func (a *Annotation) Note() string             { return a.note }
func (a *Annotation) Tags() []string           { return append([]string(nil), a.tags...) }
func (a *Annotation) Color() string            { return a.color }
func (a *Annotation) NoteEmbedding() []float32 { return a.noteEmbedding }
func (a *Annotation) Owner() string            { return a.owner }
func (a *Annotation) Shared() bool             { return a.shared_ }
func (a *Annotation) CreatedAt() time.Time     { return a.createdAt }
func (a *Annotation) UpdatedAt() time.Time     { return a.updatedAt }

// UpdateNote changes note/tags/color without touching the frozen offsets.
func (a *Annotation) UpdateNote(note string, tags []string, color string, clock shared.Clock) {
	a.note = note
	a.tags = tags
	a.color = color
	a.updatedAt = clock.Now()
}

func (a *Annotation) SetNoteEmbedding(v []float32) { a.noteEmbedding = v }

func (a *Annotation) PullEvents() []shared.Event {
	events := a.events
	a.events = nil
	return events
}

// Repository persists annotations, cascade-deleted with their parent
// resource (spec §3, §5 scenario 3).
type Repository interface {
	Save(ctx context.Context, a *Annotation) error
	FindByID(ctx context.Context, id shared.ID) (*Annotation, error)
	ListByResource(ctx context.Context, resourceID shared.ID) ([]*Annotation, error)
	Delete(ctx context.Context, id shared.ID) error
	DeleteByResource(ctx context.Context, resourceID shared.ID) error
}
