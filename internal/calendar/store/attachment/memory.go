// Package attachment persists instance-to-document links.
package attachment

import (
	"context"
	"sort"
	"sync"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
)

// InMemory is a mutex-guarded attachment store for tests and local runs.
type InMemory struct {
	mu          sync.RWMutex
	attachments map[id.AttachmentID]*models.Attachment
}

func NewInMemory() *InMemory {
	return &InMemory{attachments: make(map[id.AttachmentID]*models.Attachment)}
}

func (s *InMemory) Create(_ context.Context, a *models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.attachments[a.ID] = &cp
	return nil
}

func (s *InMemory) ListByInstance(_ context.Context, instanceID id.InstanceID) ([]*models.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Attachment
	for _, a := range s.attachments {
		if a.InstanceID == instanceID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
