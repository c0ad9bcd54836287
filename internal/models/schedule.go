package models

import "time"

type Schedule struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	ClientID    int64     `db:"client_id" json:"client_id"`
	ClientName  string    `db:"client_name" json:"client_name"`
	ServiceType string    `db:"service_type" json:"service_type"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
