package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"taxcal/internal/calendar/models"
	"taxcal/internal/calendar/recurrence"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
	"taxcal/pkg/platform/audit"
	"taxcal/pkg/platform/sentinel"
	"taxcal/pkg/requestcontext"
)

// Generate materializes instances for every active template over the
// half-open window [from, to).
//
// The run is idempotent: a (template, period) pair that already has an
// instance is skipped via the store's uniqueness contract, so repeated and
// overlapping runs converge on the same calendar. Failures are isolated at
// the (template, period) unit of work: neither a bad template nor one failed
// period stops the rest of the run.
func (s *Service) Generate(ctx context.Context, orgID id.OrgID, from, to time.Time) (int, error) {
	if err := requireOrgID(orgID); err != nil {
		return 0, err
	}
	if !from.Before(to) {
		return 0, dErrors.New(dErrors.CodeValidation, "generation window start must precede end")
	}

	ctx, span := s.tracer.Start(ctx, "calendar.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("organization_id", orgID.String()),
		attribute.String("window_from", from.Format(time.RFC3339)),
		attribute.String("window_to", to.Format(time.RFC3339)),
	)

	if _, err := s.profiles.FindByOrg(ctx, orgID); err != nil {
		return 0, wrapProfileErr(err)
	}
	templates, err := s.templates.ListActiveByOrg(ctx, orgID)
	if err != nil {
		return 0, wrapTemplateErr(err)
	}

	started := time.Now()
	now := requestcontext.Now(ctx)
	created := 0
	for _, tmpl := range templates {
		n, err := s.generateForTemplate(ctx, tmpl, from, to, now)
		created += n
		if err != nil {
			// Template-level failures are isolated: log, count, move on.
			s.logger.ErrorContext(ctx, "template generation failed",
				"organization_id", orgID,
				"template_id", tmpl.ID,
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.IncrementGenerationFailures()
			}
		}
	}

	if s.metrics != nil {
		s.metrics.AddInstancesCreated(created)
		s.metrics.ObserveGenerationDuration(time.Since(started).Seconds())
	}
	span.SetAttributes(attribute.Int("instances_created", created))
	s.emitAudit(ctx, orgID, audit.EventGenerationCompleted, orgID.String(), fmt.Sprintf("created=%d templates=%d", created, len(templates)))
	return created, nil
}

// generateForTemplate enumerates the template's periods inside the window and
// creates the missing instances. Each period is an independent unit of work:
// a period-level failure is logged and counted, and the remaining periods
// still materialize. The failed period is picked up by a later run.
func (s *Service) generateForTemplate(ctx context.Context, tmpl *models.Template, from, to time.Time, now time.Time) (int, error) {
	unit, err := tmpl.PeriodUnit()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, period := range recurrence.Enumerate(unit, from, to) {
		err := s.materialize(ctx, tmpl, period, now)
		switch {
		case err == nil:
			created++
		case errors.Is(err, sentinel.ErrConflict):
			// Already materialized; idempotent skip.
			if s.metrics != nil {
				s.metrics.IncrementDuplicatesSkipped()
			}
		default:
			s.logger.ErrorContext(ctx, "period materialization failed",
				"organization_id", tmpl.OrganizationID,
				"template_id", tmpl.ID,
				"period_start", period.Start,
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.IncrementGenerationFailures()
			}
		}
	}
	return created, nil
}

// materialize builds and stores one instance, freezing the revenue estimate
// into its metadata when the template asks for one.
func (s *Service) materialize(ctx context.Context, tmpl *models.Template, period recurrence.Period, now time.Time) error {
	meta := models.InstanceMeta{}
	if tmpl.RuleMeta.EstimateSource == models.EstimatePaidInvoices {
		amount, err := s.EstimateRevenue(ctx, tmpl.OrganizationID, period.Start, period.End)
		if err != nil {
			return err
		}
		estimatedAt := now
		meta = models.InstanceMeta{
			EstimatedAmount: amount,
			EstimateSource:  string(models.EstimatePaidInvoices),
			EstimatedAt:     &estimatedAt,
		}
	}

	dueAt := recurrence.DueAt(period.End, tmpl.DueOffsetDays, tmpl.DueTime)
	inst, err := models.NewInstance(id.InstanceID(uuid.New()), tmpl.ID, tmpl.OrganizationID, period.Start, period.End, dueAt, meta, now)
	if err != nil {
		return err
	}
	return s.instances.CreateIfAbsent(ctx, inst)
}
