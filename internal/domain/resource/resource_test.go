package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

func TestNewResource_RequiresOriginURL(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	_, err := NewResource("", "title", clock)
	require.Error(t, err)
}

func TestNewResource_StartsPendingAndEmitsCreatedEvent(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	r, err := NewResource("https://example.com/a", "A Title", clock)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status())

	events := r.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventResourceCreated, events[0].Type)
	assert.Empty(t, r.PullEvents())
}

func TestTransition_EnforcesLifecycleOrder(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	r, err := NewResource("https://example.com/a", "A Title", clock)
	require.NoError(t, err)

	err = r.Transition(StatusCompleted, clock)
	assert.Error(t, err, "pending cannot jump directly to completed")

	require.NoError(t, r.Transition(StatusProcessing, clock))
	err = r.Transition(StatusProcessing, clock)
	assert.Error(t, err, "processing cannot transition to itself")
}

func TestTransition_CompletedRequiresBothVectors(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	r, err := NewResource("https://example.com/a", "A Title", clock)
	require.NoError(t, err)
	require.NoError(t, r.Transition(StatusProcessing, clock))

	err = r.Transition(StatusCompleted, clock)
	assert.Error(t, err, "completion without dense/sparse vectors must fail")

	r.SetVectors(true, true, "resources/abc/archive.txt", "minilm-l6-v2", clock)
	require.NoError(t, r.Transition(StatusCompleted, clock))
	assert.Equal(t, StatusCompleted, r.Status())
}

func TestTransition_TerminalStatusesAreFinal(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	r, err := NewResource("https://example.com/a", "A Title", clock)
	require.NoError(t, err)
	require.NoError(t, r.Transition(StatusProcessing, clock))
	require.NoError(t, r.Transition(StatusFailed, clock))

	assert.Error(t, r.Transition(StatusCompleted, clock))
	assert.Error(t, r.Transition(StatusProcessing, clock))
}

func TestApplyEnrichment_SetsFieldsAndTouches(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	r, err := NewResource("https://example.com/a", "A Title", clock)
	require.NoError(t, err)
	r.PullEvents()

	before := r.Version()
	r.ApplyEnrichment("desc", "creator", "publisher", "en", "article", []string{"math"}, clock)

	assert.Equal(t, "desc", r.Description())
	assert.Equal(t, "creator", r.Creator())
	assert.Equal(t, []string{"math"}, r.Subjects())
	assert.Greater(t, r.Version(), before)

	events := r.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventResourceContentChanged, events[0].Type)
}

func TestNeedsQualityReview_FlagsLowScores(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	r, err := NewResource("https://example.com/a", "A Title", clock)
	require.NoError(t, err)
	assert.True(t, r.NeedsQualityReview(), "zero-value quality dimensions should read as needing review")

	r.ScoreQuality(QualityDimensions{
		Accuracy: 0.9, Completeness: 0.9, Consistency: 0.9, Timeliness: 0.9, Relevance: 0.9, Overall: 0.9,
	}, clock)
	assert.False(t, r.NeedsQualityReview())
}

func TestClassify_RecordsCodeAndEmitsEvent(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	r, err := NewResource("https://example.com/a", "A Title", clock)
	require.NoError(t, err)
	r.PullEvents()

	r.Classify("cs.distsys", "keyword-v1", clock)
	assert.Equal(t, "cs.distsys", r.ClassificationCode())
	assert.Equal(t, "keyword-v1", r.Models().ClassifierModel)

	events := r.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventResourceClassified, events[0].Type)
}
