package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/auth"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/metrics"
	"github.com/vaughan-dsouza/salonbook/internal/models"
	"github.com/vaughan-dsouza/salonbook/internal/store"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller attached by Authenticator, if any.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// UserGetter is the slice of the credential store the session check needs.
type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator verifies the bearer access token and re-resolves its user,
// so tokens of deleted accounts stop working before they expire.
type Authenticator struct {
	tokens  *auth.Issuer
	users   UserGetter
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewAuthenticator(tokens *auth.Issuer, users UserGetter, log logging.Logger, m *metrics.Metrics) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log, metrics: m}
}

func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := bearerToken(r)
		if !ok {
			a.reject(w, r, apperr.Unauthorized(), nil)
			return
		}

		claims, err := a.tokens.ParseAccess(token)
		if errors.Is(err, auth.ErrTokenExpired) {
			a.reject(w, r, apperr.TokenExpired(), err)
			return
		}
		if err != nil {
			a.reject(w, r, apperr.InvalidToken(), err)
			return
		}

		user, err := a.users.GetByID(ctx, claims.UserID())
		if errors.Is(err, store.ErrNotFound) {
			a.reject(w, r, apperr.UserNotFound(), nil)
			return
		}
		if err != nil {
			a.log.Error(ctx, "session lookup failed", "user_id", claims.UserID(), "error", err)
			utils.Error(w, apperr.Server())
			return
		}

		ctx = WithIdentity(ctx, user.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, e *apperr.Error, cause error) {
	args := []any{"code", e.Code, "path", r.URL.Path, "ip", r.RemoteAddr}
	if cause != nil {
		args = append(args, "error", cause)
	}
	a.log.Warn(r.Context(), "authentication failed", args...)
	a.metrics.AuthEvent(metrics.EventSessionReject)
	utils.Error(w, e)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
