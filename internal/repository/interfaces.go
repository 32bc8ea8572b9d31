package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/prop-edge/internal/models"
)

// ScanVersionRepository defines the interface for scan history access
type ScanVersionRepository interface {
	// Save normalizes and stores a version, returning the stored copy
	Save(ctx context.Context, version *models.ScanVersion) error
	// List returns the newest versions first without results, slips or locked keys
	List(ctx context.Context, limit int) ([]*models.ScanVersion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScanVersion, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DefaultListLimit is used when List is called with a non-positive limit
const DefaultListLimit = 50
