// Package template persists recurring obligation templates.
package template

import (
	"context"
	"sort"
	"sync"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded template store for tests and local runs.
type InMemory struct {
	mu        sync.RWMutex
	templates map[id.TemplateID]*models.Template
}

func NewInMemory() *InMemory {
	return &InMemory{templates: make(map[id.TemplateID]*models.Template)}
}

func (s *InMemory) Create(_ context.Context, t *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[t.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *t
	s.templates[t.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, templateID id.TemplateID, orgID id.OrgID) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[templateID]
	if !ok || t.OrganizationID != orgID {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ListByOrg returns every template of the organization, active or not,
// ordered by creation time.
func (s *InMemory) ListByOrg(_ context.Context, orgID id.OrgID) ([]*models.Template, error) {
	return s.list(orgID, false), nil
}

// ListActiveByOrg returns only the templates the materializer should expand.
func (s *InMemory) ListActiveByOrg(_ context.Context, orgID id.OrgID) ([]*models.Template, error) {
	return s.list(orgID, true), nil
}

func (s *InMemory) list(orgID id.OrgID, activeOnly bool) []*models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Template
	for _, t := range s.templates {
		if t.OrganizationID != orgID {
			continue
		}
		if activeOnly && !t.Active {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *InMemory) CountByProfile(_ context.Context, profileID id.ProfileID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.templates {
		if t.ProfileID == profileID {
			count++
		}
	}
	return count, nil
}

// Execute atomically validates and mutates a template under the store lock.
func (s *InMemory) Execute(_ context.Context, templateID id.TemplateID, orgID id.OrgID, validate func(*models.Template) error, apply func(*models.Template)) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[templateID]
	if !ok || t.OrganizationID != orgID {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(t); err != nil {
			return nil, err
		}
	}
	apply(t)
	cp := *t
	return &cp, nil
}
