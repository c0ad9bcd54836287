package middleware

import (
	"net/http"

	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/metrics"
	"github.com/vaughan-dsouza/salonbook/internal/ratelimit"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

// RateLimit rejects requests over the limiter's budget with the error built
// by onLimit. Clients are keyed by authenticated user id when known, else by
// remote address. A failing counter lets the request through.
func RateLimit(l *ratelimit.Limiter, onLimit func() *apperr.Error, log logging.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := clientKey(r)

			ok, err := l.Allow(ctx, key)
			if err != nil {
				log.Error(ctx, "rate limiter unavailable", "limiter", l.Name(), "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				log.Warn(ctx, "rate limit exceeded", "limiter", l.Name(), "client", key)
				m.AuthEvent(metrics.EventRateLimited)
				utils.Error(w, onLimit())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		return "user:" + itoa(id.ID)
	}
	return "ip:" + remoteHost(r.RemoteAddr)
}
