package calsvc

import (
	"context"
	"sync"
	"time"

	"github.com/starford/dagaz/internal/scheduler"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/view"
)

// Controller owns the navigation state of one calendar session: view mode,
// reference date, module filter, and selection. It is the stateful surface
// consumed by session-oriented clients (the MCP server); the HTTP API uses
// the stateless Service directly.
type Controller struct {
	svc    *Service
	tenant string
	now    func() time.Time

	mu       sync.Mutex
	mode     view.Mode
	ref      time.Time
	filter   store.ModuleFilter
	selected string
}

// NewController creates a controller positioned on today's week with no
// filter. now is injectable for testing; nil means time.Now.
func NewController(svc *Service, tenant string, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		svc:    svc,
		tenant: tenant,
		now:    now,
		mode:   view.ModeWeek,
		ref:    now(),
		filter: store.FilterAll,
	}
}

// State returns the controller's current mode, reference date, filter, and
// selected event id.
func (c *Controller) State() (view.Mode, time.Time, store.ModuleFilter, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.ref, c.filter, c.selected
}

// SetMode switches the view mode; the reference date is kept, so the new
// window still contains it.
func (c *Controller) SetMode(mode view.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
}

// SetFilter switches the module filter.
func (c *Controller) SetFilter(filter store.ModuleFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
}

// Select marks an event as selected; an empty id clears the selection.
func (c *Controller) Select(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = eventID
}

// Navigate moves the reference date by direction steps of the current
// mode's unit.
func (c *Controller) Navigate(direction int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref = view.Navigate(c.ref, c.mode, direction)
}

// GoToToday resets the reference date to the current instant.
func (c *Controller) GoToToday() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref = c.now()
}

// Page computes the payload for the current state.
func (c *Controller) Page(ctx context.Context) (*Page, error) {
	c.mu.Lock()
	mode, ref, filter := c.mode, c.ref, c.filter
	c.mu.Unlock()
	return c.svc.Page(ctx, c.tenant, ref, mode, filter)
}

// MonthPage computes the month matrix for the current reference date.
func (c *Controller) MonthPage(ctx context.Context) (*MonthPage, error) {
	c.mu.Lock()
	ref, filter := c.ref, c.filter
	c.mu.Unlock()
	return c.svc.Month(ctx, c.tenant, ref, filter)
}

// Drop completes a drag gesture and, on success, returns the freshly
// fetched page for the current window. The page is recomputed rather than
// patched locally, so the presentation reconciles against stored state.
func (c *Controller) Drop(ctx context.Context, drop scheduler.Drop, perms scheduler.Permissions) (*scheduler.Result, *Page, error) {
	res, err := c.svc.Reschedule(ctx, c.tenant, drop, perms)
	if err != nil {
		return res, nil, err
	}
	page, err := c.Page(ctx)
	if err != nil {
		return res, nil, err
	}
	return res, page, nil
}
