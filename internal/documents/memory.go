package documents

import (
	"context"
	"sync"

	id "taxcal/pkg/domain"
)

type ownedDoc struct {
	documentID id.DocumentID
	orgID      id.OrgID
}

// InMemory is an in-process document registry for tests and local runs.
type InMemory struct {
	mu   sync.RWMutex
	docs map[ownedDoc]bool
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[ownedDoc]bool)}
}

// Register marks a document as existing within an organization.
func (s *InMemory) Register(documentID id.DocumentID, orgID id.OrgID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[ownedDoc{documentID, orgID}] = true
}

func (s *InMemory) Exists(_ context.Context, documentID id.DocumentID, orgID id.OrgID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[ownedDoc{documentID, orgID}], nil
}
