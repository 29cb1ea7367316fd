package view

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeWeek {
		t.Errorf("ParseMode(\"\") = %v, %v", m, err)
	}
	if m, err := ParseMode("day"); err != nil || m != ModeDay {
		t.Errorf("ParseMode(day) = %v, %v", m, err)
	}
	if _, err := ParseMode("fortnight"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestWindowFor_Day(t *testing.T) {
	ref := time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC)
	w := WindowFor(ref, ModeDay)
	if !w.Start.Equal(date(2026, time.August, 26)) {
		t.Errorf("start = %v", w.Start)
	}
	want := time.Date(2026, time.August, 26, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !w.End.Equal(want) {
		t.Errorf("end = %v, want %v", w.End, want)
	}
}

func TestWindowFor_WeekAnchorsOnMonday(t *testing.T) {
	// 2026-08-26 is a Wednesday; its week runs Monday the 24th through
	// Sunday the 30th.
	ref := time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC)
	w := WindowFor(ref, ModeWeek)
	if !w.Anchor.Equal(date(2026, time.August, 24)) {
		t.Errorf("anchor = %v, want Mon Aug 24", w.Anchor)
	}
	if !w.Start.Equal(w.Anchor) {
		t.Errorf("start = %v, want anchor", w.Start)
	}
	wantEnd := time.Date(2026, time.August, 30, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !w.End.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", w.End, wantEnd)
	}
	if got := w.Days(); len(got) != 7 {
		t.Errorf("Days() = %d entries, want 7", len(got))
	}
}

func TestWeekAnchor_SundayBelongsToPreviousMonday(t *testing.T) {
	// 2026-08-30 is a Sunday.
	anchor := WeekAnchor(date(2026, time.August, 30))
	if !anchor.Equal(date(2026, time.August, 24)) {
		t.Errorf("anchor = %v, want Mon Aug 24", anchor)
	}
}

func TestWindowFor_MonthSpansWholeMonth(t *testing.T) {
	ref := time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC)
	w := WindowFor(ref, ModeMonth)
	if !w.Start.Equal(date(2026, time.February, 1)) {
		t.Errorf("start = %v", w.Start)
	}
	wantEnd := time.Date(2026, time.February, 28, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !w.End.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", w.End, wantEnd)
	}
}

func TestWindow_Contains(t *testing.T) {
	w := WindowFor(date(2026, time.August, 26), ModeWeek)
	if !w.Contains(date(2026, time.August, 24)) || !w.Contains(w.End) {
		t.Error("window must contain its own bounds")
	}
	if w.Contains(date(2026, time.August, 31)) {
		t.Error("next Monday must be outside the week window")
	}
}

func TestNavigate(t *testing.T) {
	ref := date(2026, time.August, 26)
	if got := Navigate(ref, ModeDay, 1); !got.Equal(date(2026, time.August, 27)) {
		t.Errorf("day +1 = %v", got)
	}
	if got := Navigate(ref, ModeWeek, -1); !got.Equal(date(2026, time.August, 19)) {
		t.Errorf("week -1 = %v", got)
	}
	if got := Navigate(ref, ModeMonth, 1); !got.Equal(date(2026, time.September, 26)) {
		t.Errorf("month +1 = %v", got)
	}
}

func TestNavigate_MonthClampsEndOfMonth(t *testing.T) {
	// Jan 31 + one month must land on the last day of February, not spill
	// into March.
	if got := Navigate(date(2026, time.January, 31), ModeMonth, 1); !got.Equal(date(2026, time.February, 28)) {
		t.Errorf("Jan 31 +1 month = %v, want Feb 28", got)
	}
	if got := Navigate(date(2024, time.January, 31), ModeMonth, 1); !got.Equal(date(2024, time.February, 29)) {
		t.Errorf("leap year Jan 31 +1 month = %v, want Feb 29", got)
	}
	if got := Navigate(date(2026, time.March, 31), ModeMonth, -1); !got.Equal(date(2026, time.February, 28)) {
		t.Errorf("Mar 31 -1 month = %v, want Feb 28", got)
	}
}

func TestMonthGrid_FourRowFebruary(t *testing.T) {
	// February 2021 starts on a Monday and has 28 days: exactly 4 rows.
	rows := MonthGrid(date(2021, time.February, 10))
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if !rows[0][0].Equal(date(2021, time.February, 1)) {
		t.Errorf("first cell = %v", rows[0][0])
	}
	if !rows[3][6].Equal(date(2021, time.February, 28)) {
		t.Errorf("last cell = %v", rows[3][6])
	}
}

func TestMonthGrid_SixRowMonthIsNotTruncated(t *testing.T) {
	// August 2026 starts on a Saturday; the 31st falls in a sixth row,
	// which must be present.
	rows := MonthGrid(date(2026, time.August, 15))
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	if !rows[0][0].Equal(date(2026, time.July, 27)) {
		t.Errorf("grid start = %v, want Mon Jul 27", rows[0][0])
	}
	if !rows[5][0].Equal(date(2026, time.August, 31)) {
		t.Errorf("sixth row start = %v, want Mon Aug 31", rows[5][0])
	}
}

func TestMonthGrid_RowsAreConsecutiveWeeks(t *testing.T) {
	rows := MonthGrid(date(2026, time.June, 1))
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	for r, row := range rows {
		if len(row) != 7 {
			t.Fatalf("row %d has %d cells", r, len(row))
		}
		if row[0].Weekday() != time.Monday {
			t.Errorf("row %d starts on %v", r, row[0].Weekday())
		}
		for i := 1; i < 7; i++ {
			if !row[i].Equal(row[i-1].AddDate(0, 0, 1)) {
				t.Errorf("row %d cell %d not consecutive", r, i)
			}
		}
	}
}
