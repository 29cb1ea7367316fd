package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dagaz/internal/calsvc"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/scheduler"
)

// CreateActivityRequest is the request body for creating a native
// activity.
type CreateActivityRequest struct {
	Title     string            `json:"title"`
	StartAt   time.Time         `json:"start_at"`
	EndAt     *time.Time        `json:"end_at,omitempty"`
	Completed bool              `json:"completed"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Validate validates the create-activity request.
func (r CreateActivityRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.StartAt, validation.Required),
	); err != nil {
		return err
	}
	if r.EndAt != nil && r.EndAt.Before(r.StartAt) {
		return validation.Errors{"end_at": validation.NewError("validation_end_before_start", "must not be before start_at")}
	}
	return nil
}

// UpdateActivityRequest is the request body for updating an activity.
type UpdateActivityRequest = CreateActivityRequest

// CreateAppointmentRequest is the request body for creating a clinic
// appointment.
type CreateAppointmentRequest struct {
	Patient   string `json:"patient"`
	Treatment string `json:"treatment,omitempty"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Validate validates the create-appointment request.
func (r CreateAppointmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Patient, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&r.StartTime, validation.Required, validation.Date("15:04")),
		validation.Field(&r.EndTime, validation.Date("15:04")),
	)
}

// RescheduleRequest is the request body for completing a drag gesture.
// Token is the RFC 3339 updated_at the client last saw; omit to skip the
// optimistic check.
type RescheduleRequest struct {
	EventID      string  `json:"event_id"`
	PixelY       float64 `json:"pixel_y"`
	ScrollOffset float64 `json:"scroll_offset"`
	TargetDate   string  `json:"target_date"`
	Token        string  `json:"token,omitempty"`
}

// Validate validates the reschedule request.
func (r RescheduleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EventID, validation.Required),
		validation.Field(&r.TargetDate, validation.Required, validation.Date("2006-01-02")),
	)
}

// Drop converts the request into a scheduler drop.
func (r RescheduleRequest) Drop() (scheduler.Drop, error) {
	target, err := time.Parse("2006-01-02", r.TargetDate)
	if err != nil {
		return scheduler.Drop{}, err
	}
	drop := scheduler.Drop{
		EventID:      r.EventID,
		PixelY:       r.PixelY,
		ScrollOffset: r.ScrollOffset,
		TargetDate:   target,
	}
	if r.Token != "" {
		tok, err := time.Parse(time.RFC3339Nano, r.Token)
		if err != nil {
			return scheduler.Drop{}, err
		}
		drop.Token = tok
	}
	return drop, nil
}

// CalendarResponse is the day/week payload (aliased from the domain layer).
type CalendarResponse = calsvc.Page

// MonthResponse is the month-grid payload (aliased from the domain layer).
type MonthResponse = calsvc.MonthPage

// RescheduleResponse reports a completed reschedule.
type RescheduleResponse = scheduler.Result

// ActivityListResponse wraps paginated activity listings.
type ActivityListResponse struct {
	Activities []models.Activity `json:"activities" validate:"required"`
	Total      int               `json:"total" example:"42" validate:"required"`
}

// AppointmentCreatedResponse reports a booked appointment together with
// the calendar mirror activity created for it.
type AppointmentCreatedResponse struct {
	Appointment models.Appointment `json:"appointment"`
	Mirror      models.Activity    `json:"mirror"`
}

// AppointmentListResponse wraps paginated appointment listings.
type AppointmentListResponse struct {
	Appointments []models.Appointment `json:"appointments" validate:"required"`
	Total        int                  `json:"total" example:"7" validate:"required"`
}
