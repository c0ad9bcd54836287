package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughan-dsouza/salonbook/internal/models"
)

var userCols = []string{"id", "name", "email", "password_hash", "salt", "role", "created_at"}

func TestPostgresUsers_Create(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users\s*\(name, email, password_hash, salt, role\).*RETURNING\s+id, created_at`).
		WithArgs("Ana", "ana@x.com", "hash", "salt", "user").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), created))

	u := &models.User{Name: "Ana", Email: "ana@x.com", Password: "hash", Salt: "salt", Role: models.RoleUser}
	require.NoError(t, NewPostgresUsers(db).Create(context.Background(), u))

	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, created, u.CreatedAt)
}

func TestPostgresUsers_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	u := &models.User{Name: "Ana", Email: "ana@x.com", Password: "hash", Role: models.RoleUser}
	err := NewPostgresUsers(db).Create(context.Background(), u)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestPostgresUsers_Create_DBError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := NewPostgresUsers(db).Create(context.Background(), &models.User{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.Contains(t, err.Error(), "db down")
}

func TestPostgresUsers_GetByID(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`(?s)SELECT\s+id, name, email, password_hash, salt, role, created_at\s+FROM\s+users\s+WHERE\s+id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "Ana", "ana@x.com", "hash", "salt", "admin", time.Now()))

	u, err := NewPostgresUsers(db).GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestPostgresUsers_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`WHERE\s+email=\$1`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := NewPostgresUsers(db).GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUsers_Update(t *testing.T) {
	db, mock := newMockDB(t)
	q := `(?s)UPDATE\s+users\s+SET\s+name=\$1, email=\$2, password_hash=\$3, salt=\$4\s+WHERE\s+id=\$5`

	mock.ExpectExec(q).
		WithArgs("Ana B", "ana@x.com", "hash2", "salt2", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("Ana B", "taken@x.com", "hash2", "salt2", int64(7)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectExec(q).
		WithArgs("Ana B", "ana@x.com", "hash2", "salt2", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	users := NewPostgresUsers(db)
	u := &models.User{ID: 7, Name: "Ana B", Email: "ana@x.com", Password: "hash2", Salt: "salt2"}
	require.NoError(t, users.Update(context.Background(), u))

	u.Email = "taken@x.com"
	assert.ErrorIs(t, users.Update(context.Background(), u), ErrEmailExists)

	u.Email, u.ID = "ana@x.com", 8
	assert.ErrorIs(t, users.Update(context.Background(), u), ErrNotFound)
}

func TestPostgresUsers_Delete(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+id=\$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+id=\$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	users := NewPostgresUsers(db)
	require.NoError(t, users.Delete(context.Background(), 7))
	assert.ErrorIs(t, users.Delete(context.Background(), 7), ErrNotFound)
}
