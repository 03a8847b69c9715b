package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL,
		hashed_password BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
	`CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		domain TEXT NOT NULL,
		api_key TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_sites_api_key ON sites (api_key)`,
	`CREATE INDEX IF NOT EXISTS idx_sites_user_id ON sites (user_id)`,
	`CREATE TABLE IF NOT EXISTS metrics (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'number',
		color TEXT NOT NULL DEFAULT '#3B82F6',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_metrics_user_id ON metrics (user_id)`,
	`CREATE TABLE IF NOT EXISTS metric_values (
		id TEXT PRIMARY KEY,
		metric_id TEXT NOT NULL REFERENCES metrics (id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		value DOUBLE PRECISION NOT NULL,
		date DATE NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (metric_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_metric_values_user_id ON metric_values (user_id)`,
}

// ClickHouse has no foreign keys; rows of a deleted site stay orphaned and are
// never read because every query is scoped to an existing site.
var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS page_views (
		id String,
		site_id String,
		path String,
		referrer String,
		user_agent String,
		country LowCardinality(String),
		region String,
		city String,
		browser LowCardinality(String),
		os LowCardinality(String),
		device LowCardinality(String),
		session_id String,
		visitor_id String,
		timestamp DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (site_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS events (
		id String,
		site_id String,
		name LowCardinality(String),
		properties String,
		visitor_id String,
		session_id String,
		path String,
		timestamp DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (site_id, timestamp)`,
}

func EnsurePostgresSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply postgres schema: %w", err)
		}
	}
	return nil
}

func EnsureClickHouseSchema(ctx context.Context, conn clickhouse.Conn) error {
	for _, stmt := range clickhouseSchema {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply clickhouse schema: %w", err)
		}
	}
	return nil
}
