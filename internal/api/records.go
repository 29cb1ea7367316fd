package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

func (h *Handler) requireEdit(w http.ResponseWriter, r *http.Request) bool {
	if canEdit(r) {
		return true
	}
	writeJSON(w, http.StatusForbidden, errorBody("edit permission required"))
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// CreateActivity handles POST /api/activities.
//
//	@Summary		Create a generic activity
//	@Tags			activities
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateActivityRequest	true	"Activity"
//	@Success		201		{object}	models.Activity
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/activities [post]
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	if !h.requireEdit(w, r) {
		return
	}
	var req CreateActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	act := &models.Activity{
		TenantID:  tenantFrom(r),
		Title:     req.Title,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		Completed: req.Completed,
		Metadata:  req.Metadata,
	}
	if err := h.svc.CreateActivity(r.Context(), act); err != nil {
		slog.Error("create activity failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, act)
}

// ListActivities handles GET /api/activities.
//
//	@Summary		List activities for the tenant
//	@Tags			activities
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (max 500)"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	ActivityListResponse
//	@Security		BearerAuth
//	@Router			/activities [get]
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.svc.Store().ListActivities(tenantFrom(r), intQuery(r, "limit", 0), intQuery(r, "offset", 0))
	if err != nil {
		slog.Error("list activities failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, ActivityListResponse{Activities: items, Total: total})
}

// GetActivity handles GET /api/activities/{id}.
//
//	@Summary		Get one activity
//	@Tags			activities
//	@Produce		json
//	@Param			id	path		string	true	"Activity ID"
//	@Success		200	{object}	models.Activity
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/activities/{id} [get]
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	act, err := h.svc.Store().GetActivity(tenantFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get activity failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, act)
}

// UpdateActivity handles PUT /api/activities/{id}.
//
//	@Summary		Update an activity's fields
//	@Tags			activities
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Activity ID"
//	@Param			body	body		UpdateActivityRequest	true	"New field values"
//	@Success		200		{object}	models.Activity
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/activities/{id} [put]
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	if !h.requireEdit(w, r) {
		return
	}
	var req UpdateActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	act := &models.Activity{
		ID:        chi.URLParam(r, "id"),
		TenantID:  tenantFrom(r),
		Title:     req.Title,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		Completed: req.Completed,
		Metadata:  req.Metadata,
	}
	if err := h.svc.Store().UpdateActivity(act); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		if errors.Is(err, apperr.ErrModuleOwned) {
			writeJSON(w, http.StatusConflict, errorBody("activity is managed by its module"))
			return
		}
		slog.Error("update activity failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, act)
}

// DeleteActivity handles DELETE /api/activities/{id}.
//
//	@Summary		Delete an activity
//	@Tags			activities
//	@Param			id	path	string	true	"Activity ID"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/activities/{id} [delete]
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	if !h.requireEdit(w, r) {
		return
	}
	if err := h.svc.DeleteActivity(r.Context(), tenantFrom(r), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete activity failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateAppointment handles POST /api/appointments.
//
//	@Summary		Book a clinic appointment and its calendar mirror
//	@Tags			appointments
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateAppointmentRequest	true	"Appointment"
//	@Success		201		{object}	AppointmentCreatedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/appointments [post]
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	if !h.requireEdit(w, r) {
		return
	}
	var req CreateAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	ap := &models.Appointment{
		TenantID:  tenantFrom(r),
		Patient:   req.Patient,
		Treatment: req.Treatment,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	}
	mirror, err := h.svc.CreateAppointment(r.Context(), ap)
	if err != nil {
		slog.Error("create appointment failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, AppointmentCreatedResponse{Appointment: *ap, Mirror: *mirror})
}

// ListAppointments handles GET /api/appointments.
//
//	@Summary		List appointments for the tenant
//	@Tags			appointments
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (max 500)"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	AppointmentListResponse
//	@Security		BearerAuth
//	@Router			/appointments [get]
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.svc.Store().ListAppointments(tenantFrom(r), intQuery(r, "limit", 0), intQuery(r, "offset", 0))
	if err != nil {
		slog.Error("list appointments failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []models.Appointment{}
	}
	writeJSON(w, http.StatusOK, AppointmentListResponse{Appointments: items, Total: total})
}

// GetAppointment handles GET /api/appointments/{id}.
//
//	@Summary		Get one appointment
//	@Tags			appointments
//	@Produce		json
//	@Param			id	path		string	true	"Appointment ID"
//	@Success		200	{object}	models.Appointment
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/appointments/{id} [get]
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	ap, err := h.svc.Store().GetAppointment(tenantFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get appointment failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ap)
}

// DeleteAppointment handles DELETE /api/appointments/{id}.
//
//	@Summary		Cancel an appointment and remove its calendar mirror
//	@Tags			appointments
//	@Param			id	path	string	true	"Appointment ID"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/appointments/{id} [delete]
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if !h.requireEdit(w, r) {
		return
	}
	if err := h.svc.DeleteAppointment(r.Context(), tenantFrom(r), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete appointment failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
