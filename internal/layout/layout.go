// Package layout implements the event layout engine: it partitions one
// day's events into chains of overlapping events and assigns each a visual
// column so that no two events in the same column overlap in time.
package layout

import (
	"sort"
	"time"

	"github.com/starford/dagaz/internal/models"
)

// DayKeyFormat is the bucket key format for calendar days.
const DayKeyFormat = "2006-01-02"

// Layouted is the ephemeral per-render output of the engine. Column is the
// zero-based lane the event renders in; TotalColumns is the lane count of
// the event's whole cluster.
type Layouted struct {
	Event        models.Event `json:"event"`
	Column       int          `json:"column"`
	TotalColumns int          `json:"total_columns"`
}

// Day lays out the events of one calendar day. The caller is responsible
// for having filtered the slice to a single day; the engine uses supplied
// end instants (or the 30-minute default) without validating them.
//
// The input slice is not mutated; the result is freshly allocated on every
// call, so concurrent layout passes never share state.
func Day(events []models.Event) []Layouted {
	if len(events) == 0 {
		return []Layouted{}
	}

	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	// Stable: ties on start time keep their original list order, which
	// makes column assignment deterministic.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartAt.Before(sorted[j].StartAt)
	})

	out := make([]Layouted, 0, len(sorted))
	for _, cluster := range clusters(sorted) {
		out = append(out, assignColumns(cluster)...)
	}
	return out
}

// clusters walks the start-sorted events and groups them into maximal
// chains of overlap: an event joins the current cluster by overlapping the
// running maximum end time, not necessarily every member.
func clusters(sorted []models.Event) [][]models.Event {
	var (
		groups     [][]models.Event
		current    []models.Event
		clusterEnd time.Time
	)
	for _, ev := range sorted {
		if len(current) > 0 && !ev.StartAt.Before(clusterEnd) {
			groups = append(groups, current)
			current = nil
		}
		if len(current) == 0 {
			clusterEnd = ev.EffectiveEnd()
		} else if end := ev.EffectiveEnd(); end.After(clusterEnd) {
			clusterEnd = end
		}
		current = append(current, ev)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// assignColumns greedily places each cluster event into the first column
// whose last event has already ended, opening a new column otherwise. The
// greedy first-fit over start-sorted intervals uses the minimum number of
// columns for the cluster.
func assignColumns(cluster []models.Event) []Layouted {
	var columnEnds []time.Time
	placed := make([]Layouted, len(cluster))

	for i, ev := range cluster {
		col := -1
		for c, end := range columnEnds {
			if !end.After(ev.StartAt) {
				col = c
				break
			}
		}
		if col == -1 {
			col = len(columnEnds)
			columnEnds = append(columnEnds, ev.EffectiveEnd())
		} else {
			columnEnds[col] = ev.EffectiveEnd()
		}
		placed[i] = Layouted{Event: ev, Column: col}
	}

	for i := range placed {
		placed[i].TotalColumns = len(columnEnds)
	}
	return placed
}

// BucketByDay groups events by the calendar day of their start instant,
// keyed by DayKeyFormat.
func BucketByDay(events []models.Event) map[string][]models.Event {
	buckets := make(map[string][]models.Event)
	for _, ev := range events {
		key := ev.StartAt.Format(DayKeyFormat)
		buckets[key] = append(buckets[key], ev)
	}
	return buckets
}
