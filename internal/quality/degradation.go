package quality

import (
	"sort"
	"time"

	"neo-alexandria/internal/domain/shared"
)

const (
	defaultLookbackWindow = 30 * 24 * time.Hour
	degradationThreshold  = 0.20
)

// Snapshot is one historical overall-quality-score reading for a resource.
type Snapshot struct {
	ID        shared.ID
	Overall   float64
	Recorded  time.Time
}

// DegradationReport flags a resource whose overall score dropped by more
// than degradationThreshold over the lookback window.
type DegradationReport struct {
	ID           shared.ID
	Baseline     float64
	Current      float64
	DropFraction float64
	Degraded     bool
}

// DetectDegradation compares each resource's most recent score against its
// oldest score still inside the lookback window (spec §4.8: default 30-day
// window; >20% drop is flagged). history may contain multiple resources'
// snapshots in any order.
func DetectDegradation(history []Snapshot, now time.Time, lookback time.Duration) []DegradationReport {
	if lookback <= 0 {
		lookback = defaultLookbackWindow
	}
	cutoff := now.Add(-lookback)

	byID := make(map[shared.ID][]Snapshot)
	for _, s := range history {
		if s.Recorded.Before(cutoff) {
			continue
		}
		byID[s.ID] = append(byID[s.ID], s)
	}

	ids := make([]shared.ID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	reports := make([]DegradationReport, 0, len(ids))
	for _, id := range ids {
		snaps := byID[id]
		sort.Slice(snaps, func(i, j int) bool { return snaps[i].Recorded.Before(snaps[j].Recorded) })
		if len(snaps) < 2 {
			continue
		}
		baseline := snaps[0].Overall
		current := snaps[len(snaps)-1].Overall
		if baseline <= 0 {
			continue
		}
		drop := (baseline - current) / baseline
		reports = append(reports, DegradationReport{
			ID:           id,
			Baseline:     baseline,
			Current:      current,
			DropFraction: drop,
			Degraded:     drop > degradationThreshold,
		})
	}
	return reports
}
