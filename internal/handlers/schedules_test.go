package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/models"
)

var (
	stylist = models.Identity{ID: 1, Name: "Ana", Email: "ana@example.com", Role: models.RoleUser}
	other   = models.Identity{ID: 2, Name: "Bob", Email: "bob@example.com", Role: models.RoleUser}
	owner   = models.Identity{ID: 3, Name: "Owner", Email: "owner@salon.com", Role: models.RoleAdmin}
)

func (e *testEnv) createSchedule(t *testing.T, caller models.Identity, at string) models.Schedule {
	t.Helper()
	rec := serve(t, e.h.Schedules.Create, request{
		method:   http.MethodPost,
		path:     "/schedules",
		body:     map[string]any{"client_id": 1, "service_type": "facial1", "scheduled_at": at, "notes": "first visit"},
		identity: &caller,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Schedule](t, rec)
}

func TestSchedules_Create(t *testing.T) {
	e := newTestEnv(t)

	s := e.createSchedule(t, stylist, "2030-06-02T10:00:00Z")
	assert.Equal(t, int64(1), s.ID)
	assert.Equal(t, stylist.ID, s.UserID)
	assert.Equal(t, "Walk-in", s.ClientName)
	assert.True(t, s.ScheduledAt.Equal(time.Date(2030, 6, 2, 10, 0, 0, 0, time.UTC)))

	rec := serve(t, e.h.Schedules.Create, request{
		method:   http.MethodPost,
		path:     "/schedules",
		body:     map[string]any{"client_id": 42, "service_type": "facial1", "scheduled_at": "2030-06-02T10:00:00Z"},
		identity: &stylist,
	})
	got := assertError(t, rec, http.StatusBadRequest, apperr.CodeValidation)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "client_id", got.Fields[0].Field)

	rec = serve(t, e.h.Schedules.Create, request{
		method:   http.MethodPost,
		path:     "/schedules",
		body:     map[string]any{"service_type": "facial1"},
		identity: &stylist,
	})
	assertError(t, rec, http.StatusBadRequest, apperr.CodeValidation)
}

func TestSchedules_Access(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSchedule(t, stylist, "2030-06-02T10:00:00Z")
	id := "1"

	rec := serve(t, e.h.Schedules.Get, request{path: "/schedules/1", id: id, identity: &stylist})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.ID, decode[models.Schedule](t, rec).ID)

	rec = serve(t, e.h.Schedules.Get, request{path: "/schedules/1", id: id, identity: &other})
	assertError(t, rec, http.StatusForbidden, apperr.CodeForbidden)

	rec = serve(t, e.h.Schedules.Delete, request{method: http.MethodDelete, path: "/schedules/1", id: id, identity: &other})
	assertError(t, rec, http.StatusForbidden, apperr.CodeForbidden)

	rec = serve(t, e.h.Schedules.Get, request{path: "/schedules/1", id: id, identity: &owner})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, e.h.Schedules.Get, request{path: "/schedules/9", id: "9", identity: &stylist})
	assertError(t, rec, http.StatusNotFound, apperr.CodeScheduleNotFound)

	rec = serve(t, e.h.Schedules.Get, request{path: "/schedules/abc", id: "abc", identity: &stylist})
	assertError(t, rec, http.StatusBadRequest, apperr.CodeValidation)
}

func TestSchedules_List(t *testing.T) {
	e := newTestEnv(t)
	e.createSchedule(t, stylist, "2030-06-03T10:00:00Z")
	e.createSchedule(t, stylist, "2030-06-02T10:00:00Z")
	e.createSchedule(t, other, "2030-06-02T11:00:00Z")

	rec := serve(t, e.h.Schedules.List, request{path: "/schedules", identity: &stylist})
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]models.Schedule](t, rec)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(2), mine[0].ID)
	for _, s := range mine {
		assert.Equal(t, stylist.ID, s.UserID)
	}

	rec = serve(t, e.h.Schedules.List, request{path: "/schedules", identity: &owner})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Schedule](t, rec), 3)

	empty := models.Identity{ID: 77, Role: models.RoleUser}
	rec = serve(t, e.h.Schedules.List, request{path: "/schedules", identity: &empty})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSchedules_UpdateAndDelete(t *testing.T) {
	e := newTestEnv(t)
	e.createSchedule(t, stylist, "2030-06-02T10:00:00Z")

	rec := serve(t, e.h.Schedules.Update, request{
		method:   http.MethodPut,
		path:     "/schedules/1",
		id:       "1",
		body:     map[string]any{"notes": "moved", "scheduled_at": "2030-06-04T15:00:00Z"},
		identity: &stylist,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.Schedule](t, rec)
	assert.Equal(t, "moved", got.Notes)
	assert.Equal(t, "facial1", got.ServiceType)
	assert.True(t, got.ScheduledAt.Equal(time.Date(2030, 6, 4, 15, 0, 0, 0, time.UTC)))

	rec = serve(t, e.h.Schedules.Update, request{
		method:   http.MethodPut,
		path:     "/schedules/1",
		id:       "1",
		body:     map[string]any{"client_id": 5},
		identity: &owner,
	})
	assertError(t, rec, http.StatusBadRequest, apperr.CodeValidation)

	rec = serve(t, e.h.Schedules.Delete, request{method: http.MethodDelete, path: "/schedules/1", id: "1", identity: &owner})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, e.h.Schedules.Get, request{path: "/schedules/1", id: "1", identity: &stylist})
	assertError(t, rec, http.StatusNotFound, apperr.CodeScheduleNotFound)
}
