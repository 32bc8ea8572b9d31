package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/prop-edge/internal/config"
)

// scanVersionsSchema creates the scan history table. Results, slips and locked keys are JSONB.
const scanVersionsSchema = `
CREATE TABLE IF NOT EXISTS scan_versions (
	id               UUID PRIMARY KEY,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	sport            TEXT NOT NULL,
	scan_scope       TEXT NOT NULL,
	trending_players INTEGER NOT NULL DEFAULT 0,
	total_scanned    INTEGER NOT NULL DEFAULT 0,
	plays_found      INTEGER NOT NULL DEFAULT 0,
	games_queried    INTEGER NOT NULL DEFAULT 0,
	results_count    INTEGER NOT NULL DEFAULT 0,
	slip_count       INTEGER NOT NULL DEFAULT 0,
	results          JSONB NOT NULL DEFAULT '[]'::jsonb,
	slips            JSONB NOT NULL DEFAULT '[]'::jsonb,
	locked_keys      JSONB NOT NULL DEFAULT '[]'::jsonb
);
CREATE INDEX IF NOT EXISTS scan_versions_created_at_idx ON scan_versions (created_at DESC);
`

// Initialize creates a database connection pool and ensures the scan history schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates missing tables and indexes
func EnsureSchema(ctx context.Context, db *DB) error {
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, scanVersionsSchema)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to apply scan history schema: %w", err)
	}
	return nil
}
