package store

import (
	"fmt"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/view"
)

// ModuleFilter narrows the unified event query to one event source.
type ModuleFilter string

// Supported module filters.
const (
	FilterAll    ModuleFilter = "all"
	FilterNative ModuleFilter = "native"
	FilterClinic ModuleFilter = models.ModuleClinic
)

// ParseModuleFilter parses a filter string, defaulting the empty string
// to all.
func ParseModuleFilter(s string) (ModuleFilter, error) {
	switch ModuleFilter(s) {
	case "":
		return FilterAll, nil
	case FilterAll, FilterNative, FilterClinic:
		return ModuleFilter(s), nil
	default:
		return "", fmt.Errorf("store: unknown module filter %q", s)
	}
}

// EventsInWindow returns the tenant's calendar events whose start instant
// falls inside the window, ordered by start instant. Every returned event
// satisfies w.Start <= StartAt <= w.End.
func (db *DB) EventsInWindow(tenant string, w view.Window, filter ModuleFilter) ([]models.Event, error) {
	q := `SELECT ` + activityColumns + ` FROM activities
		WHERE tenant_id = ? AND start_at >= ? AND start_at <= ?`
	args := []any{tenant, toMillis(w.Start), toMillis(w.End)}

	switch filter {
	case FilterNative:
		q += ` AND module_id IS NULL`
	case FilterAll, "":
		// no additional predicate
	default:
		q += ` AND module_id = ?`
		args = append(args, string(filter))
	}
	q += ` ORDER BY start_at, id`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: events in window: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, a.Event())
	}
	return events, rows.Err()
}
