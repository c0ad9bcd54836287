package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaughan-dsouza/salonbook/internal/models"
)

type AppointmentStore interface {
	Create(ctx context.Context, a *models.Appointment) error
}

type PostgresAppointments struct {
	db *sqlx.DB
}

func NewPostgresAppointments(db *sqlx.DB) *PostgresAppointments {
	return &PostgresAppointments{db: db}
}

func (s *PostgresAppointments) Create(ctx context.Context, a *models.Appointment) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO appointments (date, time, service, name, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, a.Date, a.Time, a.Service, a.Name, a.Email, a.Phone).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}
