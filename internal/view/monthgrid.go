package view

import "time"

// MonthGrid returns the calendar-page matrix for the month containing ref:
// rows of seven consecutive days starting from the Monday on or before the
// month's first day. Rows are emitted until the whole month is covered
// (four to six rows), so a month that starts late in the week never loses
// its final row; only fully out-of-month trailing rows are omitted.
func MonthGrid(ref time.Time) [][]time.Time {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	last := first.AddDate(0, 1, -1)
	start := WeekAnchor(first)

	var rows [][]time.Time
	for rowStart := start; !rowStart.After(last); rowStart = rowStart.AddDate(0, 0, 7) {
		row := make([]time.Time, 7)
		for i := range row {
			row[i] = rowStart.AddDate(0, 0, i)
		}
		rows = append(rows, row)
	}
	return rows
}
