package repository

import (
	"fmt"

	"github.com/yourusername/prop-edge/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	ScanVersion ScanVersionRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		ScanVersion: NewPostgresScanVersionRepository(db),
	}, nil
}

// NewInMemoryRepositories returns process-local repositories for runs without a database
func NewInMemoryRepositories() *Repositories {
	return &Repositories{
		ScanVersion: NewInMemoryScanVersionRepository(),
	}
}
