package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
)

func newTestResource(t *testing.T, clock shared.Clock, url string, subjects []string, classCode string, status resource.Status) *resource.Resource {
	t.Helper()
	r, err := resource.NewResource(url, "title", clock)
	require.NoError(t, err)
	r.ApplyEnrichment("desc", "creator", "publisher", "en", "article", subjects, clock)
	if classCode != "" {
		r.Classify(classCode, "classifier-v1", clock)
	}
	if status == resource.StatusProcessing || status == resource.StatusCompleted {
		require.NoError(t, r.Transition(resource.StatusProcessing, clock))
	}
	if status == resource.StatusCompleted {
		r.SetVectors(true, true, "blob", "minilm-l6-v2", clock)
		require.NoError(t, r.Transition(resource.StatusCompleted, clock))
	}
	if status == resource.StatusFailed {
		require.NoError(t, r.Transition(resource.StatusFailed, clock))
	}
	return r
}

func TestResourceRepository_SaveThenFindByID(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	store := NewStore(clock)
	repo := NewResourceRepository(store)
	ctx := context.Background()

	r := newTestResource(t, clock, "https://example.com/a", []string{"math"}, "", resource.StatusPending)
	require.NoError(t, repo.Save(ctx, r))

	got, err := repo.FindByID(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, r.OriginURL(), got.OriginURL())
	assert.Equal(t, r.Status(), got.Status())
}

func TestResourceRepository_FindByID_UnknownReturnsNotFound(t *testing.T) {
	store := NewStore(shared.NewFixedClock(time.Now()))
	repo := NewResourceRepository(store)

	_, err := repo.FindByID(context.Background(), shared.ID("missing"))
	assert.Error(t, err)
}

func TestResourceRepository_Delete(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	store := NewStore(clock)
	repo := NewResourceRepository(store)
	ctx := context.Background()

	r := newTestResource(t, clock, "https://example.com/a", nil, "", resource.StatusPending)
	require.NoError(t, repo.Save(ctx, r))
	require.NoError(t, repo.Delete(ctx, r.ID()))

	_, err := repo.FindByID(ctx, r.ID())
	assert.Error(t, err)

	assert.Error(t, repo.Delete(ctx, r.ID()), "deleting an already-deleted id should not succeed")
}

func TestResourceRepository_List_FiltersByStatusClassificationAndSubject(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	store := NewStore(clock)
	repo := NewResourceRepository(store)
	ctx := context.Background()

	completed := newTestResource(t, clock, "https://example.com/a", []string{"Physics"}, "500", resource.StatusCompleted)
	pending := newTestResource(t, clock, "https://example.com/b", []string{"Physics"}, "500", resource.StatusPending)
	otherSubject := newTestResource(t, clock, "https://example.com/c", []string{"History"}, "900", resource.StatusCompleted)

	require.NoError(t, repo.Save(ctx, completed))
	require.NoError(t, repo.Save(ctx, pending))
	require.NoError(t, repo.Save(ctx, otherSubject))

	completedStatus := resource.StatusCompleted
	results, _, err := repo.List(ctx, resource.ListFilter{Status: &completedStatus})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, _, err = repo.List(ctx, resource.ListFilter{ClassificationCode: "500"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, _, err = repo.List(ctx, resource.ListFilter{Subject: "physics"})
	require.NoError(t, err)
	assert.Len(t, results, 2, "subject match is case-insensitive")

	results, _, err = repo.List(ctx, resource.ListFilter{Status: &completedStatus, Subject: "history"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, otherSubject.ID(), results[0].ID())
}

func TestResourceRepository_List_PaginatesWithCursor(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	store := NewStore(clock)
	repo := NewResourceRepository(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r := newTestResource(t, clock, "https://example.com/"+string(rune('a'+i)), nil, "", resource.StatusPending)
		require.NoError(t, repo.Save(ctx, r))
	}

	page1, cursor1, err := repo.List(ctx, resource.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, cursor1)

	page2, cursor2, err := repo.List(ctx, resource.ListFilter{Limit: 2, Cursor: cursor1})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEmpty(t, cursor2)

	page3, cursor3, err := repo.List(ctx, resource.ListFilter{Limit: 2, Cursor: cursor2})
	require.NoError(t, err)
	assert.Len(t, page3, 1)
	assert.Empty(t, cursor3, "last page has no further cursor")

	seen := map[shared.ID]bool{}
	for _, r := range append(append(page1, page2...), page3...) {
		assert.False(t, seen[r.ID()], "pagination must not repeat an id across pages")
		seen[r.ID()] = true
	}
	assert.Len(t, seen, 5)
}
