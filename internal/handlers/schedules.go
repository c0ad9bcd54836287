package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/middleware"
	"github.com/vaughan-dsouza/salonbook/internal/models"
	"github.com/vaughan-dsouza/salonbook/internal/store"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

// ScheduleHandler manages staff schedules. Default users act on their own
// rows; the elevated role acts on every row.
type ScheduleHandler struct {
	schedules store.ScheduleStore
	log       logging.Logger
}

func NewScheduleHandler(schedules store.ScheduleStore, log logging.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, log: log}
}

type createScheduleReq struct {
	ClientID    int64     `json:"client_id" validate:"required,gt=0"`
	ServiceType string    `json:"service_type" validate:"required,max=100"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       string    `json:"notes" validate:"max=1000"`
}

type updateScheduleReq struct {
	ClientID    *int64     `json:"client_id" validate:"omitempty,gt=0"`
	ServiceType *string    `json:"service_type" validate:"omitempty,min=1,max=100"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Notes       *string    `json:"notes" validate:"omitempty,max=1000"`
}

func unknownClient() *apperr.Error {
	return apperr.Validation(apperr.FieldError{Field: "client_id", Message: "unknown client"})
}

// ---------------------- CREATE ----------------------

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.Error(w, apperr.Unauthorized())
		return
	}

	var body createScheduleReq
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return
	}

	s, err := h.schedules.Create(r.Context(), &models.Schedule{
		UserID:      id.ID,
		ClientID:    body.ClientID,
		ServiceType: body.ServiceType,
		ScheduledAt: body.ScheduledAt,
		Notes:       body.Notes,
	})
	if errors.Is(err, store.ErrClientNotFound) {
		utils.Error(w, unknownClient())
		return
	}
	if err != nil {
		serverError(w, r, h.log, "schedule insert failed", err)
		return
	}

	h.log.Info(r.Context(), "schedule created", "schedule_id", s.ID, "user_id", id.ID)
	utils.JSON(w, http.StatusCreated, s)
}

// ---------------------- GET ONE ----------------------

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

// ---------------------- LIST ----------------------

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.Error(w, apperr.Unauthorized())
		return
	}

	owner := id.ID
	if id.Role.Elevated() {
		owner = 0
	}

	schedules, err := h.schedules.List(r.Context(), owner)
	if err != nil {
		serverError(w, r, h.log, "schedule list failed", err)
		return
	}

	utils.JSON(w, http.StatusOK, schedules)
}

// ---------------------- UPDATE ----------------------

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateScheduleReq
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return
	}

	s, ok := h.load(w, r)
	if !ok {
		return
	}

	if body.ClientID != nil {
		s.ClientID = *body.ClientID
	}
	if body.ServiceType != nil {
		s.ServiceType = *body.ServiceType
	}
	if body.ScheduledAt != nil {
		s.ScheduledAt = *body.ScheduledAt
	}
	if body.Notes != nil {
		s.Notes = *body.Notes
	}

	updated, err := h.schedules.Update(r.Context(), s)
	switch {
	case errors.Is(err, store.ErrClientNotFound):
		utils.Error(w, unknownClient())
		return
	case errors.Is(err, store.ErrNotFound):
		utils.Error(w, apperr.ScheduleNotFound())
		return
	case err != nil:
		serverError(w, r, h.log, "schedule update failed", err)
		return
	}

	h.log.Info(r.Context(), "schedule updated", "schedule_id", s.ID)
	utils.JSON(w, http.StatusOK, updated)
}

// ---------------------- DELETE ----------------------

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}

	err := h.schedules.Delete(r.Context(), s.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(w, r, h.log, "schedule delete failed", err)
		return
	}

	h.log.Info(r.Context(), "schedule deleted", "schedule_id", s.ID)
	w.WriteHeader(http.StatusNoContent)
}

// load fetches the {id} schedule and checks the caller may act on it.
func (h *ScheduleHandler) load(w http.ResponseWriter, r *http.Request) (*models.Schedule, bool) {
	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.Error(w, apperr.Unauthorized())
		return nil, false
	}

	id, verr := urlID(r)
	if verr != nil {
		utils.Error(w, verr)
		return nil, false
	}

	s, err := h.schedules.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(w, apperr.ScheduleNotFound())
		return nil, false
	}
	if err != nil {
		serverError(w, r, h.log, "schedule lookup failed", err)
		return nil, false
	}

	if s.UserID != caller.ID && !caller.Role.Elevated() {
		utils.Error(w, apperr.Forbidden())
		return nil, false
	}
	return s, true
}
