package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/calsvc"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/view"
)

// Handler holds API route handlers.
type Handler struct {
	svc *calsvc.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *calsvc.Service) *Handler {
	return &Handler{svc: svc}
}

// calendarQuery parses the shared date/view/module query parameters.
func calendarQuery(r *http.Request) (time.Time, view.Mode, store.ModuleFilter, error) {
	q := r.URL.Query()

	ref := time.Now()
	if d := q.Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return time.Time{}, "", "", err
		}
		ref = parsed
	}
	mode, err := view.ParseMode(q.Get("view"))
	if err != nil {
		return time.Time{}, "", "", err
	}
	filter, err := store.ParseModuleFilter(q.Get("module"))
	if err != nil {
		return time.Time{}, "", "", err
	}
	return ref, mode, filter, nil
}

// Calendar handles GET /api/calendar.
//
//	@Summary		Get the layouted day/week calendar page
//	@Tags			calendar
//	@Produce		json
//	@Param			date	query		string	false	"Reference date (YYYY-MM-DD), default today"
//	@Param			view	query		string	false	"View mode"	Enums(day, week)
//	@Param			module	query		string	false	"Module filter"	Enums(all, native, clinic)
//	@Success		200		{object}	CalendarResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar [get]
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	ref, mode, filter, err := calendarQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if mode == view.ModeMonth {
		writeJSON(w, http.StatusBadRequest, errorBody("use /calendar/month for the month view"))
		return
	}

	page, err := h.svc.Page(r.Context(), tenantFrom(r), ref, mode, filter)
	if err != nil {
		slog.Error("calendar page failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Month handles GET /api/calendar/month.
//
//	@Summary		Get the month-grid matrix with day event buckets
//	@Tags			calendar
//	@Produce		json
//	@Param			date	query		string	false	"Reference date (YYYY-MM-DD), default today"
//	@Param			module	query		string	false	"Module filter"	Enums(all, native, clinic)
//	@Success		200		{object}	MonthResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/month [get]
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	ref, _, filter, err := calendarQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	page, err := h.svc.Month(r.Context(), tenantFrom(r), ref, filter)
	if err != nil {
		slog.Error("month page failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Reschedule handles POST /api/calendar/reschedule.
//
//	@Summary		Complete a drag gesture by moving an event to a new slot
//	@Tags			calendar
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RescheduleRequest	true	"Drop gesture"
//	@Success		200		{object}	RescheduleResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/reschedule [post]
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	drop, err := req.Drop()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.Reschedule(r.Context(), tenantFrom(r), drop, requestPerms(canEdit(r)))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrPermissionDenied):
			writeJSON(w, http.StatusForbidden, errorBody("edit permission required"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("event changed since it was loaded"))
		case errors.Is(err, apperr.ErrPartialUpdate):
			// The generic record moved but the clinic record did not.
			slog.Error("reschedule left records inconsistent",
				slog.String("event_id", req.EventID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errResponse{Error: err.Error(), Partial: true})
		default:
			slog.Error("reschedule failed", slog.String("event_id", req.EventID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}
