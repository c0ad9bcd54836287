// Package store is the relational persistence layer. Every operation is a
// single parameterized statement against the shared sqlx pool.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrEmailExists    = errors.New("store: email already exists")
	ErrClientNotFound = errors.New("store: client not found")
)

// Postgres SQLSTATE codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
