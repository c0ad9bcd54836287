package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaughan-dsouza/salonbook/internal/models"
)

// UserStore is the credential store consumed by the auth flow.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
}

type PostgresUsers struct {
	db *sqlx.DB
}

func NewPostgresUsers(db *sqlx.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

// Create inserts u and fills in its ID and CreatedAt. A concurrent insert of
// the same email loses at the unique constraint and gets ErrEmailExists.
func (s *PostgresUsers) Create(ctx context.Context, u *models.User) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO users (name, email, password_hash, salt, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.Name, u.Email, u.Password, u.Salt, string(u.Role)).Scan(&u.ID, &u.CreatedAt)

	if pgCode(err) == uniqueViolation {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getOne(ctx, `
		SELECT id, name, email, password_hash, salt, role, created_at
		FROM users
		WHERE id=$1
	`, id)
}

func (s *PostgresUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `
		SELECT id, name, email, password_hash, salt, role, created_at
		FROM users
		WHERE email=$1
	`, email)
}

func (s *PostgresUsers) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Update rewrites the mutable profile columns: name, email and credentials.
func (s *PostgresUsers) Update(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name=$1, email=$2, password_hash=$3, salt=$4
		WHERE id=$5
	`, u.Name, u.Email, u.Password, u.Salt, u.ID)

	if pgCode(err) == uniqueViolation {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res)
}

func (s *PostgresUsers) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
