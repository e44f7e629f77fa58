package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taxcal/internal/calendar/models"
	"taxcal/internal/calendar/recurrence"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
)

// seedSpec describes one default obligation template.
type seedSpec struct {
	title         string
	description   string
	kind          models.TemplateKind
	rrule         string
	dueOffsetDays int
	meta          models.RuleMeta
	// requiresEmployees gates payroll obligations on the profile's settings.
	requiresEmployees bool
}

// defaultSeedSet is the obligation set every new profile starts with. Payroll
// entries are included only when the profile reports employees.
var defaultSeedSet = []seedSpec{
	{
		title:         "Monthly bookkeeping close",
		description:   "Reconcile accounts and close the books for the month.",
		kind:          models.KindTask,
		rrule:         "FREQ=MONTHLY;INTERVAL=1",
		dueOffsetDays: 10,
	},
	{
		title:         "Quarterly activity statement",
		description:   "Prepare and lodge the activity statement for the quarter.",
		kind:          models.KindReport,
		rrule:         "FREQ=QUARTERLY;INTERVAL=1",
		dueOffsetDays: 28,
	},
	{
		title:         "Quarterly estimated tax payment",
		description:   "Pay the estimated tax for the quarter.",
		kind:          models.KindPayment,
		rrule:         "FREQ=QUARTERLY;INTERVAL=1",
		dueOffsetDays: 28,
		meta: models.RuleMeta{
			Period:         recurrence.UnitQuarter,
			EstimateSource: models.EstimatePaidInvoices,
		},
	},
	{
		title:             "Monthly payroll withholding payment",
		description:       "Remit employee withholding for the month.",
		kind:              models.KindPayment,
		rrule:             "FREQ=MONTHLY;INTERVAL=1",
		dueOffsetDays:     21,
		requiresEmployees: true,
	},
}

// seedTemplates creates the default obligation set for a freshly configured
// profile and returns how many templates it created.
func (s *Service) seedTemplates(ctx context.Context, profile *models.Profile, now time.Time) (int, error) {
	created := 0
	for _, spec := range defaultSeedSet {
		if spec.requiresEmployees && !profile.Settings.HasEmployees {
			continue
		}
		tmpl, err := models.NewTemplate(
			id.TemplateID(uuid.New()),
			profile.ID,
			profile.OrganizationID,
			spec.title,
			spec.kind,
			spec.rrule,
			spec.dueOffsetDays,
			"",
			spec.meta,
			now,
		)
		if err != nil {
			return created, dErrors.Wrap(err, dErrors.CodeInternal, "seed template construction failed")
		}
		tmpl.Description = spec.description
		if err := s.templates.Create(ctx, tmpl); err != nil {
			return created, wrapTemplateErr(err)
		}
		created++
	}
	return created, nil
}
