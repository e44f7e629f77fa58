// Package revenue exposes the read-only paid-invoice aggregate the amount
// estimator consumes. Invoicing itself lives in the billing system; this
// package only sums what it already recorded.
package revenue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	id "taxcal/pkg/domain"
)

// Source is the aggregate query used by amount estimation: the sum of
// invoice totals with status PAID and a paid timestamp inside [from, to).
type Source interface {
	SumPaidInvoices(ctx context.Context, orgID id.OrgID, from, to time.Time) (decimal.Decimal, error)
}

// InvoiceStatus mirrors the billing system's status vocabulary; only PAID is
// relevant here.
type InvoiceStatus string

const (
	StatusDraft InvoiceStatus = "DRAFT"
	StatusSent  InvoiceStatus = "SENT"
	StatusPaid  InvoiceStatus = "PAID"
	StatusVoid  InvoiceStatus = "VOID"
)

// Invoice is the minimal projection of a billing invoice this service reads.
type Invoice struct {
	OrganizationID id.OrgID
	Total          decimal.Decimal
	Status         InvoiceStatus
	PaidAt         *time.Time
}
