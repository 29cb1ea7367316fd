package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/calsvc"
)

// NewRouter creates a chi router with all API routes mounted.
// authMode selects between AuthModeDisabled and AuthModeToken; in token
// mode editToken grants writes and the optional readToken grants
// read-only access. sseHandler, if non-nil, is mounted at GET /events
// inside the auth group.
func NewRouter(svc *calsvc.Service, authMode, editToken, readToken string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(TenantMiddleware)
	r.Use(AuthMiddleware(authMode, editToken, readToken))

	// Calendar views and drag completion.
	r.Get("/calendar", h.Calendar)
	r.Get("/calendar/month", h.Month)
	r.Post("/calendar/reschedule", h.Reschedule)
	r.Get("/calendar/export.ics", h.ExportICS)

	// Activities CRUD.
	r.Get("/activities", h.ListActivities)
	r.Post("/activities", h.CreateActivity)
	r.Get("/activities/{id}", h.GetActivity)
	r.Put("/activities/{id}", h.UpdateActivity)
	r.Delete("/activities/{id}", h.DeleteActivity)

	// Appointments (clinic module).
	r.Get("/appointments", h.ListAppointments)
	r.Post("/appointments", h.CreateAppointment)
	r.Get("/appointments/{id}", h.GetAppointment)
	r.Delete("/appointments/{id}", h.DeleteAppointment)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
