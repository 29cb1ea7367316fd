// Package view computes the query windows and month grid backing the
// calendar's day, week, and month presentations.
package view

import (
	"fmt"
	"time"
)

// Mode selects the active calendar presentation.
type Mode string

// Supported view modes.
const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

// ParseMode parses a mode string, defaulting the empty string to week.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeWeek, nil
	case ModeDay, ModeWeek, ModeMonth:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("view: unknown mode %q", s)
	}
}

// Window is the concrete instant range used to query events, plus the
// navigational anchor: the Monday of the ISO week containing the
// reference date, regardless of mode.
type Window struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Anchor time.Time `json:"anchor"`
}

// Contains reports whether t falls inside the window (inclusive).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the sequence of day starts covered by the window.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := StartOfDay(w.Start); !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WindowFor computes the query window for a reference date and view mode.
func WindowFor(ref time.Time, mode Mode) Window {
	anchor := WeekAnchor(ref)
	switch mode {
	case ModeDay:
		return Window{Start: StartOfDay(ref), End: EndOfDay(ref), Anchor: anchor}
	case ModeMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		last := first.AddDate(0, 1, -1)
		return Window{Start: first, End: EndOfDay(last), Anchor: anchor}
	default: // week
		return Window{Start: anchor, End: EndOfDay(anchor.AddDate(0, 0, 6)), Anchor: anchor}
	}
}

// Navigate moves the reference date one step in the given direction for
// the mode: a day, a week, or a month per step.
func Navigate(ref time.Time, mode Mode, direction int) time.Time {
	switch mode {
	case ModeDay:
		return ref.AddDate(0, 0, direction)
	case ModeMonth:
		return addMonthsClamped(ref, direction)
	default:
		return ref.AddDate(0, 0, 7*direction)
	}
}

// WeekAnchor returns 00:00 of the Monday on or before ref. Sundays map to
// the previous Monday.
func WeekAnchor(ref time.Time) time.Time {
	back := (int(ref.Weekday()) + 6) % 7
	return StartOfDay(ref.AddDate(0, 0, -back))
}

// StartOfDay returns the midnight starting ref's calendar day.
func StartOfDay(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
}

// EndOfDay returns the final represented millisecond of ref's calendar day.
func EndOfDay(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 23, 59, 59, int(999*time.Millisecond), ref.Location())
}

// addMonthsClamped shifts ref by months, clamping the day-of-month so that
// e.g. Jan 31 + 1 month lands on Feb 28/29 instead of normalizing into
// March.
func addMonthsClamped(ref time.Time, months int) time.Time {
	firstOfTarget := time.Date(ref.Year(), ref.Month(), 1, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location()).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := ref.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}
