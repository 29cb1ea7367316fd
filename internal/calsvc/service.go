// Package calsvc orchestrates the calendar: it computes query windows,
// fetches events, runs the layout engine per day, and drives reschedules.
package calsvc

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/starford/dagaz/internal/grid"
	"github.com/starford/dagaz/internal/layout"
	"github.com/starford/dagaz/internal/metrics"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/scheduler"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/view"
)

// ChangeCallback is called after a successful calendar mutation.
// kind is one of "rescheduled", "created", "deleted".
type ChangeCallback func(kind, eventID string)

// EventBox is a layouted event with its pixel geometry on the day column.
type EventBox struct {
	layout.Layouted
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// DayColumn is one day of the time grid with its layouted events.
type DayColumn struct {
	Date   string     `json:"date"`
	Events []EventBox `json:"events"`
}

// Page is the complete payload backing the day and week presentations.
type Page struct {
	Window view.Window        `json:"window"`
	Mode   view.Mode          `json:"mode"`
	Grid   grid.Config        `json:"grid"`
	Filter store.ModuleFilter `json:"filter"`
	Days   []DayColumn        `json:"days"`
}

// MonthCell is one date of the month-grid matrix.
type MonthCell struct {
	Date    string         `json:"date"`
	InMonth bool           `json:"in_month"`
	Events  []models.Event `json:"events"`
}

// MonthPage is the calendar-page matrix backing the month presentation.
type MonthPage struct {
	Window view.Window   `json:"window"`
	Weeks  [][]MonthCell `json:"weeks"`
}

// Service coordinates the record store, the layout engine, and the
// reschedule coordinator. Page computations are pure given the fetched
// events; the only writes happen in Reschedule.
type Service struct {
	db       store.RecordStore
	mapper   atomic.Pointer[grid.Mapper]
	onChange ChangeCallback
}

// NewService creates a calendar service with the given grid settings.
// onChange may be nil.
func NewService(db store.RecordStore, gridCfg grid.Config, onChange ChangeCallback) (*Service, error) {
	if err := gridCfg.Validate(); err != nil {
		return nil, fmt.Errorf("calsvc: %w", err)
	}
	s := &Service{db: db, onChange: onChange}
	s.mapper.Store(grid.NewMapper(gridCfg))
	return s, nil
}

// Mapper returns the current time-grid mapper.
func (s *Service) Mapper() *grid.Mapper {
	return s.mapper.Load()
}

// SetGrid swaps the grid settings at runtime (config hot reload). In-flight
// page builds keep the mapper they started with.
func (s *Service) SetGrid(cfg grid.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mapper.Store(grid.NewMapper(cfg))
	return nil
}

// Page computes the day/week payload for a reference date: window
// calculation, event fetch, per-day bucketing, layout, and pixel geometry.
func (s *Service) Page(_ context.Context, tenant string, ref time.Time, mode view.Mode, filter store.ModuleFilter) (*Page, error) {
	started := time.Now()
	m := s.Mapper()
	w := view.WindowFor(ref, mode)

	events, err := s.db.EventsInWindow(tenant, w, filter)
	if err != nil {
		return nil, fmt.Errorf("calsvc: fetch events: %w", err)
	}

	buckets := layout.BucketByDay(events)
	days := make([]DayColumn, 0, 7)
	for _, day := range w.Days() {
		key := day.Format(layout.DayKeyFormat)
		col := DayColumn{Date: key, Events: []EventBox{}}
		for _, placed := range layout.Day(buckets[key]) {
			start := placed.Event.StartAt
			col.Events = append(col.Events, EventBox{
				Layouted: placed,
				Top:      m.TimeToOffset(start.Hour(), start.Minute()),
				Height:   m.EventHeight(placed.Event.Duration()),
			})
		}
		days = append(days, col)
	}

	metrics.ObservePageBuild(string(mode), time.Since(started))
	return &Page{Window: w, Mode: mode, Grid: m.Config(), Filter: filter, Days: days}, nil
}

// Month computes the month-grid payload: the full calendar-page matrix
// with events bucketed onto their dates.
func (s *Service) Month(_ context.Context, tenant string, ref time.Time, filter store.ModuleFilter) (*MonthPage, error) {
	started := time.Now()
	w := view.WindowFor(ref, view.ModeMonth)

	// The matrix includes lead-in/lead-out days from adjacent months, so
	// fetch the grid's full extent rather than the month window.
	rows := view.MonthGrid(ref)
	gridWindow := view.Window{
		Start:  rows[0][0],
		End:    view.EndOfDay(rows[len(rows)-1][6]),
		Anchor: w.Anchor,
	}
	events, err := s.db.EventsInWindow(tenant, gridWindow, filter)
	if err != nil {
		return nil, fmt.Errorf("calsvc: fetch events: %w", err)
	}
	buckets := layout.BucketByDay(events)

	weeks := make([][]MonthCell, len(rows))
	for r, row := range rows {
		cells := make([]MonthCell, 7)
		for i, day := range row {
			key := day.Format(layout.DayKeyFormat)
			evs := buckets[key]
			if evs == nil {
				evs = []models.Event{}
			}
			cells[i] = MonthCell{Date: key, InMonth: day.Month() == ref.Month(), Events: evs}
		}
		weeks[r] = cells
	}

	metrics.ObservePageBuild(string(view.ModeMonth), time.Since(started))
	return &MonthPage{Window: w, Weeks: weeks}, nil
}

// Reschedule delegates a drop to the coordinator and, on success,
// notifies change listeners so presentations re-fetch their window.
func (s *Service) Reschedule(ctx context.Context, tenant string, drop scheduler.Drop, perms scheduler.Permissions) (*scheduler.Result, error) {
	c := scheduler.NewCoordinator(s.Mapper(), s.db, s.db, s.db)
	res, err := c.Reschedule(ctx, tenant, drop, perms)
	if err != nil {
		metrics.CountReschedule("error")
		return res, err
	}
	metrics.CountReschedule("ok")
	s.notify("rescheduled", res.EventID)
	return res, nil
}

// CreateActivity stores a native activity and notifies listeners.
func (s *Service) CreateActivity(_ context.Context, a *models.Activity) error {
	if err := s.db.CreateActivity(a); err != nil {
		return err
	}
	s.notify("created", a.ID)
	return nil
}

// CreateAppointment stores a clinic appointment plus its mirror activity
// and notifies listeners with the mirror's event id.
func (s *Service) CreateAppointment(_ context.Context, ap *models.Appointment) (*models.Activity, error) {
	mirror, err := s.db.CreateAppointment(ap)
	if err != nil {
		return nil, err
	}
	s.notify("created", mirror.ID)
	return mirror, nil
}

// DeleteActivity removes a native activity and notifies listeners.
func (s *Service) DeleteActivity(_ context.Context, tenant, id string) error {
	if err := s.db.DeleteActivity(tenant, id); err != nil {
		return err
	}
	s.notify("deleted", id)
	return nil
}

// DeleteAppointment removes an appointment with its mirror and notifies
// listeners.
func (s *Service) DeleteAppointment(_ context.Context, tenant, id string) error {
	if err := s.db.DeleteAppointment(tenant, id); err != nil {
		return err
	}
	s.notify("deleted", id)
	return nil
}

// Store exposes the underlying record store for read endpoints.
func (s *Service) Store() store.RecordStore { return s.db }

func (s *Service) notify(kind, id string) {
	if s.onChange != nil {
		s.onChange(kind, id)
	}
}
