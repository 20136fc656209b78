// Package store persists analysis results in Postgres, falling back to JSON
// files when no database is configured.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS report_analysis (
	id          UUID PRIMARY KEY,
	stock_code  TEXT NOT NULL,
	year        INTEGER NOT NULL,
	report_type TEXT NOT NULL,
	status      TEXT NOT NULL,
	result_json JSONB NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (stock_code, year, report_type)
)`

// InitDB opens a connection pool and ensures the schema exists.
func InitDB(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL_MISSING: database url not set")
	}
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return pool, nil
}
