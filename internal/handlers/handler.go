package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/auth"
	"github.com/vaughan-dsouza/salonbook/internal/config"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/metrics"
	"github.com/vaughan-dsouza/salonbook/internal/store"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users        store.UserStore
	Schedules    store.ScheduleStore
	Appointments store.AppointmentStore
	DB           Pinger
	Tokens       *auth.Issuer
	Auth         config.AuthConfig
	Log          logging.Logger
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

type Handler struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Schedules    *ScheduleHandler
	Appointments *AppointmentHandler
	Health       *HealthHandler
}

func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	cookies := cookieJar{secure: d.Auth.CookieSecure, maxAge: d.Tokens.RefreshTTL()}

	return &Handler{
		Auth:         NewAuthHandler(d.Users, d.Tokens, cookies, d.Auth.ElevatedEmail, d.Log, d.Metrics),
		Users:        NewUserHandler(d.Users, d.Tokens, cookies, d.Log, d.Metrics),
		Schedules:    NewScheduleHandler(d.Schedules, d.Log),
		Appointments: NewAppointmentHandler(d.Appointments, d.Log, d.Now),
		Health:       NewHealthHandler(d.DB, d.Log, d.Now),
	}
}

// serverError logs err with the request context and answers SERVER_ERROR.
func serverError(w http.ResponseWriter, r *http.Request, log logging.Logger, msg string, err error) {
	log.Error(r.Context(), msg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
	)
	utils.Error(w, apperr.Server())
}

func urlID(r *http.Request) (int64, *apperr.Error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(apperr.FieldError{Field: "id", Message: "must be a positive integer"})
	}
	return id, nil
}
