package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

func TestDetectDegradation_FlagsDropOverThreshold(t *testing.T) {
	now := time.Now()
	history := []Snapshot{
		{ID: "r1", Overall: 0.9, Recorded: now.AddDate(0, 0, -20)},
		{ID: "r1", Overall: 0.6, Recorded: now},
	}

	reports := DetectDegradation(history, now, defaultLookbackWindow)

	require.Len(t, reports, 1)
	assert.True(t, reports[0].Degraded)
	assert.InDelta(t, (0.9-0.6)/0.9, reports[0].DropFraction, 1e-9)
}

func TestDetectDegradation_IgnoresSmallDrop(t *testing.T) {
	now := time.Now()
	history := []Snapshot{
		{ID: "r1", Overall: 0.9, Recorded: now.AddDate(0, 0, -20)},
		{ID: "r1", Overall: 0.85, Recorded: now},
	}

	reports := DetectDegradation(history, now, defaultLookbackWindow)

	require.Len(t, reports, 1)
	assert.False(t, reports[0].Degraded)
}

func TestDetectDegradation_IgnoresSnapshotsOutsideWindow(t *testing.T) {
	now := time.Now()
	history := []Snapshot{
		{ID: "r1", Overall: 0.9, Recorded: now.AddDate(0, 0, -40)}, // outside 30-day window
	}

	reports := DetectDegradation(history, now, defaultLookbackWindow)

	assert.Empty(t, reports)
}
