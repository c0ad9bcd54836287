package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/models"
	"github.com/vaughan-dsouza/salonbook/internal/store"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

// AppointmentHandler backs the public booking form.
type AppointmentHandler struct {
	appointments store.AppointmentStore
	log          logging.Logger
	now          func() time.Time
}

func NewAppointmentHandler(appointments store.AppointmentStore, log logging.Logger, now func() time.Time) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, log: log, now: now}
}

type appointmentReq struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string `json:"time" validate:"required"`
	Service string `json:"service" validate:"required"`
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"required,min=8,max=20"`
}

func (r *appointmentReq) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

type catalogueResp struct {
	Services  []models.Service `json:"services"`
	TimeSlots []string         `json:"timeSlots"`
}

func (h *AppointmentHandler) Services(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, catalogueResp{Services: models.Services, TimeSlots: models.TimeSlots})
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req appointmentReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	if fields := h.checkSlot(req); len(fields) > 0 {
		utils.Error(w, apperr.Validation(fields...))
		return
	}

	a := &models.Appointment{
		Date:    req.Date,
		Time:    req.Time,
		Service: req.Service,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	if err := h.appointments.Create(r.Context(), a); err != nil {
		serverError(w, r, h.log, "appointment insert failed", err)
		return
	}

	h.log.Info(r.Context(), "appointment booked", "appointment_id", a.ID, "date", a.Date, "time", a.Time, "service", a.Service)
	utils.JSON(w, http.StatusCreated, a)
}

// checkSlot validates the request against the catalogue and rejects dates
// before today.
func (h *AppointmentHandler) checkSlot(req appointmentReq) []apperr.FieldError {
	var fields []apperr.FieldError

	if _, ok := models.ServiceByID(req.Service); !ok {
		fields = append(fields, apperr.FieldError{Field: "service", Message: "unknown service"})
	}
	if !models.ValidTimeSlot(req.Time) {
		fields = append(fields, apperr.FieldError{Field: "time", Message: "not an available time slot"})
	}

	// the datetime tag already guarantees the layout
	day, _ := time.Parse(time.DateOnly, req.Date)
	today := h.now().UTC().Truncate(24 * time.Hour)
	if day.Before(today) {
		fields = append(fields, apperr.FieldError{Field: "date", Message: "must not be in the past"})
	}

	return fields
}
