// Package scheduler implements the reschedule coordinator: it turns a
// drag-and-drop gesture into an ordered pair of record updates that keep a
// module-owned event's generic and native representations in sync.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/grid"
	"github.com/starford/dagaz/internal/layout"
	"github.com/starford/dagaz/internal/models"
)

// Drop is the output of a completed drag gesture. PixelY is relative to
// the visible top of the day column; ScrollOffset is the column's current
// scroll position. Token is the updated_at the client last saw for the
// event; zero skips the optimistic check.
type Drop struct {
	EventID      string    `json:"event_id"`
	PixelY       float64   `json:"pixel_y"`
	ScrollOffset float64   `json:"scroll_offset"`
	TargetDate   time.Time `json:"target_date"`
	Token        time.Time `json:"token,omitempty"`
}

// Result reports a completed reschedule. SecondaryUpdated is true when the
// event was module-owned and its native record was rewritten too.
type Result struct {
	EventID          string     `json:"event_id"`
	NewStart         time.Time  `json:"new_start"`
	NewEnd           *time.Time `json:"new_end,omitempty"`
	Token            time.Time  `json:"token"`
	SecondaryUpdated bool       `json:"secondary_updated"`
}

// Permissions is the edit-permission collaborator, evaluated before any
// write.
type Permissions interface {
	CanEdit() bool
}

// EventReader loads the activity backing a dropped event.
type EventReader interface {
	GetActivity(tenant, id string) (*models.Activity, error)
}

// PrimaryWriter updates the generic representation of an event.
type PrimaryWriter interface {
	UpdateActivityTime(tenant, id string, start time.Time, end *time.Time, token time.Time) (time.Time, error)
}

// SecondaryWriter updates a module-owned record in its native format.
type SecondaryWriter interface {
	UpdateAppointmentSlot(tenant, id, date, startTime, endTime string) error
}

// Coordinator maps drop gestures to instants and performs the ordered
// primary-then-secondary update.
type Coordinator struct {
	mapper    *grid.Mapper
	reader    EventReader
	primary   PrimaryWriter
	secondary SecondaryWriter
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(mapper *grid.Mapper, reader EventReader, primary PrimaryWriter, secondary SecondaryWriter) *Coordinator {
	return &Coordinator{mapper: mapper, reader: reader, primary: primary, secondary: secondary}
}

// Reschedule executes one drop.
//
// The primary (generic) record is written first; when the event mirrors a
// clinic appointment, the appointment is rewritten second as an
// independent call. A failed secondary write leaves the primary in place
// and is reported as apperr.ErrPartialUpdate: the caller sees the
// inconsistency instead of a silent swallow, and there is no compensation
// of the already-committed primary write.
func (c *Coordinator) Reschedule(_ context.Context, tenant string, drop Drop, perms Permissions) (*Result, error) {
	if perms == nil || !perms.CanEdit() {
		return nil, apperr.ErrPermissionDenied
	}

	act, err := c.reader.GetActivity(tenant, drop.EventID)
	if err != nil {
		return nil, err
	}

	newStart, newEnd := c.TargetInstants(act, drop)

	// A zero token means the client opted out of the optimistic check and
	// gets last-write-wins semantics; it passes through unchecked.
	newToken, err := c.primary.UpdateActivityTime(tenant, act.ID, newStart, newEnd, drop.Token)
	if err != nil {
		return nil, fmt.Errorf("reschedule %s: %w", drop.EventID, err)
	}

	res := &Result{EventID: act.ID, NewStart: newStart, NewEnd: newEnd, Token: newToken}

	if secondaryID, ok := secondaryRecordID(act); ok {
		endTime := ""
		if newEnd != nil {
			endTime = newEnd.Format("15:04")
		}
		if err := c.secondary.UpdateAppointmentSlot(tenant, secondaryID,
			newStart.Format(layout.DayKeyFormat), newStart.Format("15:04"), endTime); err != nil {
			return res, fmt.Errorf("%w: appointment %s: %v", apperr.ErrPartialUpdate, secondaryID, err)
		}
		res.SecondaryUpdated = true
	}

	return res, nil
}

// TargetInstants computes the dropped event's new instants: the drop's
// pixel position is snapped onto the grid of the target day, and the
// event's original duration is preserved. Open-ended events stay
// open-ended.
func (c *Coordinator) TargetInstants(act *models.Activity, drop Drop) (time.Time, *time.Time) {
	hour, minute := c.mapper.OffsetToClock(drop.PixelY + drop.ScrollOffset)
	d := drop.TargetDate
	newStart := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())

	if act.EndAt == nil {
		return newStart, nil
	}
	newEnd := newStart.Add(act.EndAt.Sub(act.StartAt))
	return newStart, &newEnd
}

// secondaryRecordID returns the module-owned record id carried in the
// event's metadata, when the event both references a secondary module and
// names the record to update.
func secondaryRecordID(act *models.Activity) (string, bool) {
	if act.ModuleRef == nil || act.ModuleRef.ModuleID != models.ModuleClinic {
		return "", false
	}
	id, ok := act.Metadata[models.MetaAppointmentID]
	return id, ok && id != ""
}
