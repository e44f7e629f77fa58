// Package plangate answers whether an organization's subscription plan
// includes a feature. The billing system writes plan entitlements to Redis;
// this service only reads them.
package plangate

import (
	"context"

	id "taxcal/pkg/domain"
)

// Feature names an entitlement a plan can include.
type Feature string

// FeatureTaxCalendar gates the whole calendar surface.
const FeatureTaxCalendar Feature = "tax_calendar"

// Gate reports whether a feature is enabled for an organization.
type Gate interface {
	Allowed(ctx context.Context, orgID id.OrgID, feature Feature) (bool, error)
}

// AllowAll grants every feature. Used when no entitlement backend is
// configured (local runs, tests).
type AllowAll struct{}

func (AllowAll) Allowed(context.Context, id.OrgID, Feature) (bool, error) {
	return true, nil
}
