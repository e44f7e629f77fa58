// Package instance persists event instances. The store owns the
// (template, period) uniqueness contract the materializer depends on.
package instance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded instance store for tests and local runs. It
// enforces the same (template_id, period_start, period_end) uniqueness the
// postgres schema does.
type InMemory struct {
	mu        sync.RWMutex
	instances map[id.InstanceID]*models.Instance
	byPeriod  map[string]id.InstanceID
}

func NewInMemory() *InMemory {
	return &InMemory{
		instances: make(map[id.InstanceID]*models.Instance),
		byPeriod:  make(map[string]id.InstanceID),
	}
}

func periodKey(templateID id.TemplateID, start, end time.Time) string {
	return fmt.Sprintf("%s|%d|%d", templateID, start.UnixNano(), end.UnixNano())
}

// CreateIfAbsent inserts the instance unless one already exists for its
// (template, period). Returns sentinel.ErrConflict on a duplicate, which
// callers treat as an idempotent skip.
func (s *InMemory) CreateIfAbsent(_ context.Context, inst *models.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := periodKey(inst.TemplateID, inst.PeriodStart, inst.PeriodEnd)
	if _, exists := s.byPeriod[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *inst
	s.instances[inst.ID] = &cp
	s.byPeriod[key] = inst.ID
	return nil
}

// FindByID returns the instance when it belongs to the organization,
// sentinel.ErrNotFound otherwise. An instance owned by another organization
// is indistinguishable from a missing one.
func (s *InMemory) FindByID(_ context.Context, instanceID id.InstanceID, orgID id.OrgID) (*models.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[instanceID]
	if !ok || inst.OrganizationID != orgID {
		return nil, sentinel.ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

// ListByOrg returns the organization's instances with dueAt inside
// [from, to), ordered by dueAt. Zero bounds disable that side of the filter.
func (s *InMemory) ListByOrg(_ context.Context, orgID id.OrgID, from, to time.Time) ([]*models.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Instance
	for _, inst := range s.instances {
		if inst.OrganizationID != orgID {
			continue
		}
		if !from.IsZero() && inst.DueAt.Before(from) {
			continue
		}
		if !to.IsZero() && !inst.DueAt.Before(to) {
			continue
		}
		cp := *inst
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

// MarkOverdueBefore promotes every non-terminal instance with dueAt < before
// to OVERDUE and returns how many changed. Idempotent: a second run with the
// same arguments changes nothing.
func (s *InMemory) MarkOverdueBefore(_ context.Context, orgID id.OrgID, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, inst := range s.instances {
		if inst.OrganizationID != orgID {
			continue
		}
		if inst.Status != models.StatusUpcoming && inst.Status != models.StatusInProgress {
			continue
		}
		if inst.DueAt.Before(before) {
			inst.Status = models.StatusOverdue
			inst.UpdatedAt = before
			changed++
		}
	}
	return changed, nil
}

// Execute atomically validates and mutates an instance under the store lock.
func (s *InMemory) Execute(_ context.Context, instanceID id.InstanceID, orgID id.OrgID, validate func(*models.Instance) error, apply func(*models.Instance)) (*models.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceID]
	if !ok || inst.OrganizationID != orgID {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(inst); err != nil {
			return nil, err
		}
	}
	apply(inst)
	cp := *inst
	return &cp, nil
}

// CountByOrg returns the number of instances the organization owns.
func (s *InMemory) CountByOrg(_ context.Context, orgID id.OrgID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, inst := range s.instances {
		if inst.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}
