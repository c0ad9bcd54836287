// Package server assembles the HTTP router: middleware stack, public auth
// routes, and the routes guarded by the session check.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/handlers"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/metrics"
	"github.com/vaughan-dsouza/salonbook/internal/middleware"
	"github.com/vaughan-dsouza/salonbook/internal/ratelimit"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

type Options struct {
	Handler       *handlers.Handler
	Authenticator *middleware.Authenticator
	APILimiter    *ratelimit.Limiter
	AuthLimiter   *ratelimit.Limiter
	CORSOrigins   []string
	Log           logging.Logger
	Metrics       *metrics.Metrics
}

func NewRouter(o Options) http.Handler {
	h := o.Handler

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(o.Log, o.Metrics))
	r.Use(middleware.Recoverer(o.Log))
	r.Use(chimw.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(chimw.SetHeader("X-Frame-Options", "DENY"))
	r.Use(chimw.SetHeader("Referrer-Policy", "no-referrer"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, apperr.New(http.StatusNotFound, "NOT_FOUND", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, apperr.New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed"))
	})

	r.Method(http.MethodGet, "/metrics", o.Metrics.Handler())

	// apiLimit keys by user id behind the Authenticator, by IP elsewhere.
	apiLimit := middleware.RateLimit(o.APILimiter, apperr.RateLimited, o.Log, o.Metrics)
	authLimit := middleware.RateLimit(o.AuthLimiter, apperr.LoginLimited, o.Log, o.Metrics)

	// Public
	r.Group(func(r chi.Router) {
		r.Use(apiLimit)

		r.Get("/health", h.Health.Check)

		r.With(authLimit).Post("/auth/register", h.Auth.Register)
		r.With(authLimit).Post("/auth/login", h.Auth.Login)
		r.Post("/auth/refresh-token", h.Auth.Refresh)

		r.Get("/api/services", h.Appointments.Services)
		r.Post("/api/appointments", h.Appointments.Create)
	})

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(o.Authenticator.Handler)
		r.Use(apiLimit)

		r.Post("/auth/logout", h.Auth.Logout)

		r.Get("/users/me", h.Users.Me)
		r.Put("/users/me", h.Users.Update)
		r.Delete("/users/me", h.Users.Delete)

		r.Get("/schedules", h.Schedules.List)
		r.Post("/schedules", h.Schedules.Create)
		r.Get("/schedules/{id}", h.Schedules.Get)
		r.Put("/schedules/{id}", h.Schedules.Update)
		r.Delete("/schedules/{id}", h.Schedules.Delete)
	})

	return r
}
