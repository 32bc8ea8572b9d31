package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
)

// NewScanVersion snapshots a scan result and any slips built from it
func NewScanVersion(result *ScanResult, slips []models.RankedSlip, lockedKeys []string) *models.ScanVersion {
	return &models.ScanVersion{
		Sport:           result.Sport,
		Scope:           result.Scope,
		TrendingPlayers: result.Stats.TrendingPlayers,
		TotalScanned:    result.Stats.TotalScanned,
		PlaysFound:      result.Stats.PlaysFound,
		GamesQueried:    result.Stats.GamesQueried,
		Results:         append([]models.Opportunity(nil), result.Opportunities...),
		Slips:           append([]models.RankedSlip(nil), slips...),
		LockedKeys:      append([]string(nil), lockedKeys...),
	}
}

// HistoryEnabled reports whether scan versions can be stored
func (s *ScanService) HistoryEnabled() bool {
	return s.versions != nil
}

// SaveVersion stores a scan snapshot
func (s *ScanService) SaveVersion(ctx context.Context, version *models.ScanVersion) error {
	if s.versions == nil {
		return ErrHistoryDisabled
	}
	if err := s.versions.Save(ctx, version); err != nil {
		return fmt.Errorf("failed to save scan version: %w", err)
	}
	s.scanLog.LogVersionSaved(version.ID.String(), version.Sport, version.Scope, version.ResultsCount, version.TotalScanned)
	return nil
}

// ListVersions returns the newest versions without their result payloads
func (s *ScanService) ListVersions(ctx context.Context, limit int) ([]*models.ScanVersion, error) {
	if s.versions == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	versions, err := s.versions.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan versions: %w", err)
	}
	return versions, nil
}

// GetVersion returns one stored version
func (s *ScanService) GetVersion(ctx context.Context, id uuid.UUID) (*models.ScanVersion, error) {
	if s.versions == nil {
		return nil, ErrHistoryDisabled
	}
	v, err := s.versions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan version %s: %w", id, err)
	}
	return v, nil
}

// DeleteVersion removes one stored version
func (s *ScanService) DeleteVersion(ctx context.Context, id uuid.UUID) error {
	if s.versions == nil {
		return ErrHistoryDisabled
	}
	if err := s.versions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete scan version %s: %w", id, err)
	}
	return nil
}
