package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vaughan-dsouza/salonbook/internal/models"
)

// Memory is a thread-safe in-process implementation of every store, for
// tests and local development without Postgres. It enforces the same email
// uniqueness and client references as the SQL schema.
type Memory struct {
	mu sync.RWMutex

	users        map[int64]models.User
	schedules    map[int64]models.Schedule
	appointments map[int64]models.Appointment
	clients      map[int64]string

	nextUser, nextSchedule, nextAppointment int64

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[int64]models.User),
		schedules:    make(map[int64]models.Schedule),
		appointments: make(map[int64]models.Appointment),
		clients:      make(map[int64]string),
		now:          time.Now,
	}
}

// AddClient registers a client that schedules may reference.
func (m *Memory) AddClient(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[id] = name
}

func (m *Memory) PingContext(context.Context) error {
	return nil
}

// Users returns the UserStore view.
func (m *Memory) Users() UserStore { return memUsers{m} }

func (m *Memory) Schedules() ScheduleStore { return memSchedules{m} }

func (m *Memory) Appointments() AppointmentStore { return memAppointments{m} }

type memUsers struct{ m *Memory }

func (s memUsers) Create(_ context.Context, u *models.User) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(u.Email, 0) {
		return ErrEmailExists
	}
	m.nextUser++
	u.ID = m.nextUser
	u.CreatedAt = m.now()
	m.users[u.ID] = *u
	return nil
}

func (s memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s memUsers) Update(_ context.Context, u *models.User) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return ErrEmailExists
	}
	cur.Name, cur.Email, cur.Password, cur.Salt = u.Name, u.Email, u.Password, u.Salt
	m.users[u.ID] = cur
	return nil
}

func (s memUsers) Delete(_ context.Context, id int64) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) emailTaken(email string, except int64) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

type memSchedules struct{ m *Memory }

func (s memSchedules) Create(_ context.Context, sc *models.Schedule) (*models.Schedule, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	name, ok := m.clients[sc.ClientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	m.nextSchedule++
	row := *sc
	row.ID = m.nextSchedule
	row.ClientName = name
	row.CreatedAt = m.now()
	row.UpdatedAt = row.CreatedAt
	m.schedules[row.ID] = row
	return &row, nil
}

func (s memSchedules) Get(_ context.Context, id int64) (*models.Schedule, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sc, nil
}

func (s memSchedules) List(_ context.Context, userID int64) ([]models.Schedule, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Schedule{}
	for _, sc := range m.schedules {
		if userID == 0 || sc.UserID == userID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (s memSchedules) Update(_ context.Context, sc *models.Schedule) (*models.Schedule, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.schedules[sc.ID]
	if !ok {
		return nil, ErrNotFound
	}
	name, ok := m.clients[sc.ClientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	cur.ClientID, cur.ClientName = sc.ClientID, name
	cur.ServiceType, cur.ScheduledAt, cur.Notes = sc.ServiceType, sc.ScheduledAt, sc.Notes
	cur.UpdatedAt = m.now()
	m.schedules[sc.ID] = cur
	return &cur, nil
}

func (s memSchedules) Delete(_ context.Context, id int64) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

type memAppointments struct{ m *Memory }

func (s memAppointments) Create(_ context.Context, a *models.Appointment) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAppointment++
	a.ID = m.nextAppointment
	a.CreatedAt = m.now()
	m.appointments[a.ID] = *a
	return nil
}
