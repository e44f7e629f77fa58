package revenue

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	id "taxcal/pkg/domain"
)

// InMemory is an in-process invoice projection for tests and local runs.
type InMemory struct {
	mu       sync.RWMutex
	invoices []Invoice
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Add records an invoice in the projection.
func (s *InMemory) Add(inv Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = append(s.invoices, inv)
}

func (s *InMemory) SumPaidInvoices(_ context.Context, orgID id.OrgID, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, inv := range s.invoices {
		if inv.OrganizationID != orgID || inv.Status != StatusPaid || inv.PaidAt == nil {
			continue
		}
		if inv.PaidAt.Before(from) || !inv.PaidAt.Before(to) {
			continue
		}
		sum = sum.Add(inv.Total)
	}
	return sum, nil
}
