package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/models"
)

// PostgresScanVersionRepository implements ScanVersionRepository for PostgreSQL
type PostgresScanVersionRepository struct {
	db *database.DB
}

// NewPostgresScanVersionRepository creates a new scan version repository
func NewPostgresScanVersionRepository(db *database.DB) ScanVersionRepository {
	return &PostgresScanVersionRepository{db: db}
}

// Save inserts a new scan version
func (r *PostgresScanVersionRepository) Save(ctx context.Context, version *models.ScanVersion) error {
	query := `
		INSERT INTO scan_versions (
			id, created_at, sport, scan_scope, trending_players, total_scanned, plays_found,
			games_queried, results_count, slip_count, results, slips, locked_keys
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	version.Normalize()

	results, err := marshalJSONB(version.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	slips, err := marshalJSONB(version.Slips)
	if err != nil {
		return fmt.Errorf("failed to encode slips: %w", err)
	}
	locked, err := marshalJSONB(version.LockedKeys)
	if err != nil {
		return fmt.Errorf("failed to encode locked keys: %w", err)
	}

	_, err = r.db.GetPool().Exec(ctx, query,
		version.ID, version.CreatedAt, version.Sport, version.Scope, version.TrendingPlayers,
		version.TotalScanned, version.PlaysFound, version.GamesQueried, version.ResultsCount,
		version.SlipCount, results, slips, locked,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan version: %w", err)
	}

	return nil
}

// List retrieves version summaries, newest first
func (r *PostgresScanVersionRepository) List(ctx context.Context, limit int) ([]*models.ScanVersion, error) {
	query := `
		SELECT id, created_at, sport, scan_scope, trending_players, total_scanned, plays_found,
			games_queried, results_count, slip_count
		FROM scan_versions
		ORDER BY created_at DESC
		LIMIT $1
	`

	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.ScanVersion
	for rows.Next() {
		v := &models.ScanVersion{}
		err := rows.Scan(
			&v.ID, &v.CreatedAt, &v.Sport, &v.Scope, &v.TrendingPlayers, &v.TotalScanned,
			&v.PlaysFound, &v.GamesQueried, &v.ResultsCount, &v.SlipCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan version: %w", err)
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

// GetByID retrieves a full scan version
func (r *PostgresScanVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScanVersion, error) {
	query := `
		SELECT id, created_at, sport, scan_scope, trending_players, total_scanned, plays_found,
			games_queried, results_count, slip_count, results, slips, locked_keys
		FROM scan_versions WHERE id = $1
	`

	v := &models.ScanVersion{}
	var results, slips, locked []byte
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&v.ID, &v.CreatedAt, &v.Sport, &v.Scope, &v.TrendingPlayers, &v.TotalScanned,
		&v.PlaysFound, &v.GamesQueried, &v.ResultsCount, &v.SlipCount,
		&results, &slips, &locked,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan version: %w", err)
	}

	if err := json.Unmarshal(results, &v.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	if err := json.Unmarshal(slips, &v.Slips); err != nil {
		return nil, fmt.Errorf("failed to decode slips: %w", err)
	}
	if err := json.Unmarshal(locked, &v.LockedKeys); err != nil {
		return nil, fmt.Errorf("failed to decode locked keys: %w", err)
	}

	return v, nil
}

// Delete deletes a scan version
func (r *PostgresScanVersionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := "DELETE FROM scan_versions WHERE id = $1"

	commandTag, err := r.db.GetPool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan version: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// marshalJSONB encodes v, storing nil slices as empty arrays
func marshalJSONB[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
