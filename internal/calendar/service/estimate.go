package service

import (
	"context"
	"time"

	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
)

// EstimateRevenue sums the organization's PAID invoice totals over the
// half-open window [from, to) and returns the sum as a decimal string.
// No invoices yields "0", not an error.
func (s *Service) EstimateRevenue(ctx context.Context, orgID id.OrgID, from, to time.Time) (string, error) {
	if err := requireOrgID(orgID); err != nil {
		return "", err
	}
	if !from.Before(to) {
		return "", dErrors.New(dErrors.CodeValidation, "estimate window start must precede end")
	}
	sum, err := s.revenue.SumPaidInvoices(ctx, orgID, from, to)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "revenue lookup failed")
	}
	return sum.String(), nil
}
