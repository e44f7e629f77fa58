// Package profile persists compliance profiles (one per organization).
package profile

import (
	"context"
	"sort"
	"sync"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded profile store for tests and local runs.
type InMemory struct {
	mu    sync.RWMutex
	byOrg map[id.OrgID]*models.Profile
}

func NewInMemory() *InMemory {
	return &InMemory{byOrg: make(map[id.OrgID]*models.Profile)}
}

// FindByOrg returns the organization's profile, sentinel.ErrNotFound when it
// has none yet.
func (s *InMemory) FindByOrg(_ context.Context, orgID id.OrgID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byOrg[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Upsert writes the profile keyed by organization. The 1:1 relationship means
// a later upsert for the same organization replaces the stored row.
func (s *InMemory) Upsert(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.byOrg[p.OrganizationID] = &cp
	return nil
}

// ListOrganizations returns every organization that has a profile, in stable
// order. Used by the scheduler to enumerate generation candidates.
func (s *InMemory) ListOrganizations(_ context.Context) ([]id.OrgID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]id.OrgID, 0, len(s.byOrg))
	for orgID := range s.byOrg {
		out = append(out, orgID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
