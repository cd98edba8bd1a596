package annotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

func TestNew_ExtractsHighlightedTextFromOffsets(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	resourceID := shared.NewID()

	a, err := New(resourceID, "distributed systems are hard", 0, 11, "key term", []string{"important"}, "yellow", "owner", false, clock)
	require.NoError(t, err)
	assert.Equal(t, "distributed", a.HighlightedText())
	assert.Equal(t, resourceID, a.ResourceID())

	events := a.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventAnnotationCreated, events[0].Type)
}

func TestNew_RejectsOutOfBoundsOffsets(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	resourceID := shared.NewID()

	_, err := New(resourceID, "short", -1, 3, "", nil, "", "owner", false, clock)
	assert.Error(t, err)

	_, err = New(resourceID, "short", 3, 3, "", nil, "", "owner", false, clock)
	assert.Error(t, err, "end must be strictly greater than start")

	_, err = New(resourceID, "short", 0, 100, "", nil, "", "owner", false, clock)
	assert.Error(t, err, "end beyond text length must be rejected")
}

func TestUpdateNote_LeavesOffsetsFrozen(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	resourceID := shared.NewID()
	a, err := New(resourceID, "distributed systems are hard", 0, 11, "first", nil, "yellow", "owner", false, clock)
	require.NoError(t, err)

	a.UpdateNote("revised", []string{"tag"}, "blue", clock)
	assert.Equal(t, "revised", a.Note())
	assert.Equal(t, "blue", a.Color())
	assert.Equal(t, 0, a.StartOffset())
	assert.Equal(t, 11, a.EndOffset())
	assert.Equal(t, "distributed", a.HighlightedText())
}
