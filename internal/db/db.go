package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/vaughan-dsouza/salonbook/internal/config"
)

// Connect opens the shared Postgres pool described by cfg and checks that
// the server answers, pinging up to cfg.ConnectRetries times.
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	// Parse DSN → pgx config struct
	pgCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("db: failed to parse DSN: %w", err)
	}

	// Bound each attempt; the retry loop below bounds the total
	pgCfg.ConnectTimeout = 5 * time.Second

	// Wrap pgx's database/sql adapter in sqlx for struct scanning
	db := sqlx.NewDb(stdlib.OpenDB(*pgCfg), "pgx")

	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := pingWithRetry(ctx, db, cfg.ConnectRetries, cfg.RetryDelay); err != nil {
		db.Close()
		return nil, err
	}

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		db.Close()
		return nil, fmt.Errorf("db: health check failed: %w", err)
	}

	return db, nil
}

func pingWithRetry(ctx context.Context, db *sqlx.DB, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts || ctx.Err() != nil {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("db: failed to connect to Postgres: %w", ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("db: failed to connect to Postgres after %d attempts: %w", attempts, err)
}
