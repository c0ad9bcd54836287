package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaughan-dsouza/salonbook/internal/models"
)

type ScheduleStore interface {
	Create(ctx context.Context, s *models.Schedule) (*models.Schedule, error)
	Get(ctx context.Context, id int64) (*models.Schedule, error)
	// List returns the schedules owned by userID, or every schedule when
	// userID is zero.
	List(ctx context.Context, userID int64) ([]models.Schedule, error)
	Update(ctx context.Context, s *models.Schedule) (*models.Schedule, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresSchedules struct {
	db *sqlx.DB
}

func NewPostgresSchedules(db *sqlx.DB) *PostgresSchedules {
	return &PostgresSchedules{db: db}
}

const selectSchedule = `
	SELECT s.id, s.user_id, s.client_id, c.name AS client_name,
	       s.service_type, s.scheduled_at, s.notes, s.created_at, s.updated_at
	FROM schedules s
	JOIN clients c ON s.client_id = c.id
`

func (st *PostgresSchedules) Create(ctx context.Context, s *models.Schedule) (*models.Schedule, error) {
	var id int64
	err := st.db.QueryRowxContext(ctx, `
		INSERT INTO schedules (user_id, client_id, service_type, scheduled_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.UserID, s.ClientID, s.ServiceType, s.ScheduledAt, s.Notes).Scan(&id)

	if pgCode(err) == foreignKeyViolation {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}

	return st.Get(ctx, id)
}

func (st *PostgresSchedules) Get(ctx context.Context, id int64) (*models.Schedule, error) {
	var s models.Schedule
	err := st.db.GetContext(ctx, &s, selectSchedule+` WHERE s.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select schedule: %w", err)
	}
	return &s, nil
}

func (st *PostgresSchedules) List(ctx context.Context, userID int64) ([]models.Schedule, error) {
	schedules := []models.Schedule{}

	var err error
	if userID == 0 {
		err = st.db.SelectContext(ctx, &schedules, selectSchedule+` ORDER BY s.scheduled_at`)
	} else {
		err = st.db.SelectContext(ctx, &schedules, selectSchedule+` WHERE s.user_id = $1 ORDER BY s.scheduled_at`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("select schedules: %w", err)
	}
	return schedules, nil
}

func (st *PostgresSchedules) Update(ctx context.Context, s *models.Schedule) (*models.Schedule, error) {
	res, err := st.db.ExecContext(ctx, `
		UPDATE schedules
		SET client_id=$1, service_type=$2, scheduled_at=$3, notes=$4, updated_at=NOW()
		WHERE id=$5
	`, s.ClientID, s.ServiceType, s.ScheduledAt, s.Notes, s.ID)

	if pgCode(err) == foreignKeyViolation {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}

	return st.Get(ctx, s.ID)
}

func (st *PostgresSchedules) Delete(ctx context.Context, id int64) error {
	res, err := st.db.ExecContext(ctx, `DELETE FROM schedules WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return expectOne(res)
}
