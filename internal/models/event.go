// Package models defines the domain types for Dagaz.
package models

import "time"

// Module identifiers for events mirrored from a secondary subsystem.
const (
	ModuleClinic = "clinic"
)

// MetaAppointmentID is the metadata key carrying the clinic appointment id
// on a mirrored event. The reschedule coordinator needs it to update the
// appointment record after moving the generic activity.
const MetaAppointmentID = "appointment_id"

// DefaultDuration is assumed for layout and drag purposes when an event
// has no explicit end.
const DefaultDuration = 30 * time.Minute

// ModuleRef identifies the secondary record an event mirrors. A nil ref
// means the event is native to the generic activity store.
type ModuleRef struct {
	ModuleID   string `json:"module_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

// Event is the read-only calendar projection consumed by the layout and
// reschedule machinery. StartAt must be set; EndAt, when set, must not be
// before StartAt — the engine does not re-validate this, the store does on
// write.
type Event struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"-"`
	Title     string            `json:"title"`
	StartAt   time.Time         `json:"start_at"`
	EndAt     *time.Time        `json:"end_at,omitempty"`
	Completed bool              `json:"completed"`
	ModuleRef *ModuleRef        `json:"module_ref,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// EffectiveEnd returns the event's end instant, falling back to
// StartAt + DefaultDuration when no explicit end is set.
func (e *Event) EffectiveEnd() time.Time {
	if e.EndAt != nil {
		return *e.EndAt
	}
	return e.StartAt.Add(DefaultDuration)
}

// Duration returns the event's explicit duration, or DefaultDuration when
// the event is open-ended.
func (e *Event) Duration() time.Duration {
	if e.EndAt != nil {
		return e.EndAt.Sub(e.StartAt)
	}
	return DefaultDuration
}

// Activity is a row in the generic activity store. Every calendar event is
// backed by one activity; module-owned events additionally mirror a
// secondary record (e.g. a clinic appointment).
type Activity struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"-"`
	Title     string            `json:"title"`
	StartAt   time.Time         `json:"start_at"`
	EndAt     *time.Time        `json:"end_at,omitempty"`
	Completed bool              `json:"completed"`
	ModuleRef *ModuleRef        `json:"module_ref,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Event returns the calendar projection of the activity.
func (a *Activity) Event() Event {
	return Event{
		ID:        a.ID,
		TenantID:  a.TenantID,
		Title:     a.Title,
		StartAt:   a.StartAt,
		EndAt:     a.EndAt,
		Completed: a.Completed,
		ModuleRef: a.ModuleRef,
		Metadata:  a.Metadata,
		UpdatedAt: a.UpdatedAt,
	}
}

// Appointment is a clinic scheduling record. Its calendar times live in the
// clinic module's native format: a date string plus clock-time strings.
type Appointment struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Patient   string    `json:"patient"`
	Treatment string    `json:"treatment,omitempty"`
	Date      string    `json:"date"`       // "2006-01-02"
	StartTime string    `json:"start_time"` // "15:04"
	EndTime   string    `json:"end_time,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
