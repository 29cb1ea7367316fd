package store

import (
	"time"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/view"
)

// RecordStore defines the record operations the calendar service depends
// on. Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type RecordStore interface {
	// Activities (the generic event store).
	CreateActivity(a *models.Activity) error
	GetActivity(tenant, id string) (*models.Activity, error)
	ListActivities(tenant string, limit, offset int) ([]models.Activity, int, error)
	UpdateActivity(a *models.Activity) error
	DeleteActivity(tenant, id string) error
	// UpdateActivityTime moves an activity to new instants. When token is
	// non-zero it must match the stored updated_at or the write is
	// rejected with apperr.ErrConflict. Returns the new updated_at.
	UpdateActivityTime(tenant, id string, start time.Time, end *time.Time, token time.Time) (time.Time, error)

	// Appointments (the clinic module).
	CreateAppointment(ap *models.Appointment) (*models.Activity, error)
	GetAppointment(tenant, id string) (*models.Appointment, error)
	ListAppointments(tenant string, limit, offset int) ([]models.Appointment, int, error)
	DeleteAppointment(tenant, id string) error
	// UpdateAppointmentSlot rewrites the appointment's native date and
	// clock-time fields.
	UpdateAppointmentSlot(tenant, id, date, startTime, endTime string) error

	// EventsInWindow is the unified calendar event source.
	EventsInWindow(tenant string, w view.Window, filter ModuleFilter) ([]models.Event, error)

	Close() error
}

// Verify *DB satisfies RecordStore at compile time.
var _ RecordStore = (*DB)(nil)
