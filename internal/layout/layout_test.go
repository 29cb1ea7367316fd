package layout

import (
	"testing"
	"time"

	"github.com/starford/dagaz/internal/models"
)

var testDay = time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return testDay.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

func ev(id, start, end string) models.Event {
	e := models.Event{ID: id, Title: id, StartAt: at(start)}
	if end != "" {
		t := at(end)
		e.EndAt = &t
	}
	return e
}

func find(t *testing.T, placed []Layouted, id string) Layouted {
	t.Helper()
	for _, l := range placed {
		if l.Event.ID == id {
			return l
		}
	}
	t.Fatalf("event %s not in layout", id)
	return Layouted{}
}

func TestDay_Empty(t *testing.T) {
	placed := Day(nil)
	if placed == nil || len(placed) != 0 {
		t.Errorf("Day(nil) = %v, want empty slice", placed)
	}
}

func TestDay_SingleEvent(t *testing.T) {
	placed := Day([]models.Event{ev("a", "09:00", "10:00")})
	got := find(t, placed, "a")
	if got.Column != 0 || got.TotalColumns != 1 {
		t.Errorf("single event: column=%d total=%d, want 0/1", got.Column, got.TotalColumns)
	}
}

func TestDay_OverlapPairAndSeparate(t *testing.T) {
	// 09:00–09:30 and 09:15–09:45 overlap; 10:00–10:30 stands alone.
	placed := Day([]models.Event{
		ev("a", "09:00", "09:30"),
		ev("b", "09:15", "09:45"),
		ev("c", "10:00", "10:30"),
	})
	a, b, c := find(t, placed, "a"), find(t, placed, "b"), find(t, placed, "c")
	if a.Column != 0 || a.TotalColumns != 2 {
		t.Errorf("a: column=%d total=%d, want 0/2", a.Column, a.TotalColumns)
	}
	if b.Column != 1 || b.TotalColumns != 2 {
		t.Errorf("b: column=%d total=%d, want 1/2", b.Column, b.TotalColumns)
	}
	if c.Column != 0 || c.TotalColumns != 1 {
		t.Errorf("c: column=%d total=%d, want 0/1", c.Column, c.TotalColumns)
	}
}

func TestDay_ChainedOverlapSharesCluster(t *testing.T) {
	// c overlaps only b, yet joins the cluster through the chain a–b–c.
	placed := Day([]models.Event{
		ev("a", "09:00", "10:00"),
		ev("b", "09:30", "10:30"),
		ev("c", "10:15", "10:45"),
	})
	a, b, c := find(t, placed, "a"), find(t, placed, "b"), find(t, placed, "c")
	if a.TotalColumns != 2 || b.TotalColumns != 2 || c.TotalColumns != 2 {
		t.Errorf("totals = %d/%d/%d, want 2/2/2", a.TotalColumns, b.TotalColumns, c.TotalColumns)
	}
	// c reuses a's column: a has ended by 10:15.
	if c.Column != 0 {
		t.Errorf("c column = %d, want 0", c.Column)
	}
	if b.Column != 1 {
		t.Errorf("b column = %d, want 1", b.Column)
	}
}

func TestDay_BackToBackEventsAreSeparateClusters(t *testing.T) {
	placed := Day([]models.Event{
		ev("a", "09:00", "10:00"),
		ev("b", "10:00", "11:00"),
	})
	for _, id := range []string{"a", "b"} {
		got := find(t, placed, id)
		if got.Column != 0 || got.TotalColumns != 1 {
			t.Errorf("%s: column=%d total=%d, want 0/1", id, got.Column, got.TotalColumns)
		}
	}
}

func TestDay_OpenEndedEventDefaultsToThirtyMinutes(t *testing.T) {
	// Open-ended a spans 09:00–09:30 for layout, so it overlaps b but
	// not c.
	placed := Day([]models.Event{
		ev("a", "09:00", ""),
		ev("b", "09:15", "09:45"),
		ev("c", "09:45", "10:00"),
	})
	a, b, c := find(t, placed, "a"), find(t, placed, "b"), find(t, placed, "c")
	if a.TotalColumns != 2 || b.TotalColumns != 2 {
		t.Errorf("a/b totals = %d/%d, want 2/2", a.TotalColumns, b.TotalColumns)
	}
	if c.TotalColumns != 1 {
		t.Errorf("c total = %d, want 1", c.TotalColumns)
	}
}

func TestDay_ColumnCountMatchesPeakConcurrency(t *testing.T) {
	// Three events active at 09:30 force three columns; the later pair
	// must not inflate the count past the cluster's true peak.
	placed := Day([]models.Event{
		ev("a", "09:00", "10:00"),
		ev("b", "09:15", "09:45"),
		ev("c", "09:30", "11:00"),
		ev("d", "10:05", "10:35"),
	})
	for _, id := range []string{"a", "b", "c", "d"} {
		if got := find(t, placed, id); got.TotalColumns != 3 {
			t.Errorf("%s total = %d, want 3", id, got.TotalColumns)
		}
	}
}

func TestDay_SameColumnNeverOverlaps(t *testing.T) {
	events := []models.Event{
		ev("a", "09:00", "10:30"),
		ev("b", "09:10", "09:40"),
		ev("c", "09:20", "11:00"),
		ev("d", "09:50", "10:20"),
		ev("e", "10:40", "11:10"),
		ev("f", "10:45", ""),
		ev("g", "11:30", "12:00"),
	}
	placed := Day(events)
	for i := 0; i < len(placed); i++ {
		for j := i + 1; j < len(placed); j++ {
			a, b := placed[i], placed[j]
			if a.Column != b.Column {
				continue
			}
			if a.Event.StartAt.Before(b.Event.EffectiveEnd()) && b.Event.StartAt.Before(a.Event.EffectiveEnd()) {
				t.Errorf("%s and %s share column %d but overlap", a.Event.ID, b.Event.ID, a.Column)
			}
		}
	}
}

func TestDay_StableOrderOnEqualStarts(t *testing.T) {
	placed := Day([]models.Event{
		ev("first", "09:00", "09:30"),
		ev("second", "09:00", "09:30"),
	})
	if got := find(t, placed, "first"); got.Column != 0 {
		t.Errorf("first column = %d, want 0", got.Column)
	}
	if got := find(t, placed, "second"); got.Column != 1 {
		t.Errorf("second column = %d, want 1", got.Column)
	}
}

func TestBucketByDay(t *testing.T) {
	other := models.Event{ID: "x", StartAt: testDay.AddDate(0, 0, 1).Add(9 * time.Hour)}
	buckets := BucketByDay([]models.Event{ev("a", "09:00", "09:30"), ev("b", "18:00", ""), other})
	if len(buckets["2026-03-04"]) != 2 {
		t.Errorf("2026-03-04 bucket = %v", buckets["2026-03-04"])
	}
	if len(buckets["2026-03-05"]) != 1 {
		t.Errorf("2026-03-05 bucket = %v", buckets["2026-03-05"])
	}
}
