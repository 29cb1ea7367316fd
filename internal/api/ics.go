package api

import (
	"log/slog"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/starford/dagaz/internal/view"
)

// ExportICS handles GET /api/calendar/export.ics. It serializes the
// requested window as an iCalendar feed so external calendar clients can
// subscribe to the tenant's schedule.
//
//	@Summary		Export a calendar window as an iCalendar feed
//	@Tags			calendar
//	@Produce		plain
//	@Param			date	query		string	false	"Reference date (YYYY-MM-DD), default today"
//	@Param			view	query		string	false	"View mode"	Enums(day, week, month)
//	@Param			module	query		string	false	"Module filter"	Enums(all, native, clinic)
//	@Success		200		{string}	string	"text/calendar payload"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/export.ics [get]
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	ref, mode, filter, err := calendarQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	window := view.WindowFor(ref, mode)
	events, err := h.svc.Store().EventsInWindow(tenantFrom(r), window, filter)
	if err != nil {
		slog.Error("ics export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Starford//Dagaz//EN")

	now := time.Now().UTC()
	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + "@dagaz")
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.StartAt.UTC())
		ve.SetEndAt(ev.EffectiveEnd().UTC())
		ve.SetSummary(ev.Title)
		if ev.ModuleRef != nil {
			ve.SetDescription(ev.ModuleRef.ModuleID + " " + ev.ModuleRef.EntityType + " " + ev.ModuleRef.EntityID)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dagaz.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		slog.Error("ics write failed", slog.String("error", err.Error()))
	}
}
