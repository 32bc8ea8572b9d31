package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yourusername/prop-edge/internal/models"
)

// InMemoryScanVersionRepository keeps scan versions in process memory
type InMemoryScanVersionRepository struct {
	mu       sync.RWMutex
	versions map[uuid.UUID]*models.ScanVersion
}

// NewInMemoryScanVersionRepository creates an empty in-memory repository
func NewInMemoryScanVersionRepository() *InMemoryScanVersionRepository {
	return &InMemoryScanVersionRepository{versions: make(map[uuid.UUID]*models.ScanVersion)}
}

// Save stores a copy of the version
func (r *InMemoryScanVersionRepository) Save(ctx context.Context, version *models.ScanVersion) error {
	version.Normalize()
	stored := *version
	stored.Results = append([]models.Opportunity(nil), version.Results...)
	stored.Slips = append([]models.RankedSlip(nil), version.Slips...)
	stored.LockedKeys = append([]string(nil), version.LockedKeys...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[stored.ID] = &stored
	return nil
}

// List returns summaries newest first
func (r *InMemoryScanVersionRepository) List(ctx context.Context, limit int) ([]*models.ScanVersion, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	r.mu.RLock()
	out := make([]*models.ScanVersion, 0, len(r.versions))
	for _, v := range r.versions {
		summary := *v
		summary.Results = nil
		summary.Slips = nil
		summary.LockedKeys = nil
		out = append(out, &summary)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetByID returns a copy of a stored version
func (r *InMemoryScanVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScanVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *v
	return &out, nil
}

// Delete removes a version
func (r *InMemoryScanVersionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.versions, id)
	return nil
}
