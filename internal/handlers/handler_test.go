package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/auth"
	"github.com/vaughan-dsouza/salonbook/internal/config"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/metrics"
	"github.com/vaughan-dsouza/salonbook/internal/middleware"
	"github.com/vaughan-dsouza/salonbook/internal/models"
	"github.com/vaughan-dsouza/salonbook/internal/store"
)

type testEnv struct {
	h      *Handler
	mem    *store.Memory
	tokens *auth.Issuer
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		mem: store.NewMemory(),
		now: time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	e.mem.AddClient(1, "Walk-in")
	clock := func() time.Time { return e.now }

	cfg := config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		ElevatedEmail: "owner@salon.com",
	}
	e.tokens = auth.NewIssuer(cfg).WithClock(clock)

	e.h = NewHandler(Deps{
		Users:        e.mem.Users(),
		Schedules:    e.mem.Schedules(),
		Appointments: e.mem.Appointments(),
		DB:           e.mem,
		Tokens:       e.tokens,
		Auth:         cfg,
		Log:          logging.Discard(),
		Metrics:      metrics.New(),
		Now:          clock,
	})
	return e
}

type request struct {
	method   string
	path     string
	body     any
	identity *models.Identity
	cookie   *http.Cookie
	id       string
}

func serve(t *testing.T, fn http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	switch b := req.body.(type) {
	case nil:
	case string:
		body.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(b))
	}

	if req.method == "" {
		req.method = http.MethodGet
	}
	r := httptest.NewRequest(req.method, req.path, &body)
	r.Header.Set("Content-Type", "application/json")

	ctx := r.Context()
	if req.identity != nil {
		ctx = middleware.WithIdentity(ctx, *req.identity)
	}
	if req.id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", req.id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if req.cookie != nil {
		r.AddCookie(req.cookie)
	}

	rec := httptest.NewRecorder()
	fn(rec, r.WithContext(ctx))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) apperr.Error {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	e := decode[apperr.Error](t, rec)
	assert.Equal(t, code, e.Code)
	assert.NotEmpty(t, e.Message)
	return e
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", refreshCookieName)
	return nil
}

// register creates an account through the handler and returns the session
// body and refresh cookie.
func (e *testEnv) register(t *testing.T, name, email, password string) (sessionResp, *http.Cookie) {
	t.Helper()
	rec := serve(t, e.h.Auth.Register, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   map[string]string{"name": name, "email": email, "password": password},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionResp](t, rec), refreshCookie(t, rec)
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error {
	return errors.New("connection refused")
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	rec := serve(t, e.h.Health.Check, request{path: "/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[healthResp](t, rec)
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "Connected", body.Database)
	assert.Equal(t, "2030-06-01T12:00:00Z", body.Timestamp)

	down := NewHealthHandler(failingPinger{}, logging.Discard(), time.Now)
	rec = serve(t, down.Check, request{path: "/health"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body = decode[healthResp](t, rec)
	assert.Equal(t, "ERROR", body.Status)
	assert.Equal(t, "Disconnected", body.Database)
}
