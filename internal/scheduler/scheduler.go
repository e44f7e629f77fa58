// Package scheduler runs the periodic horizon-extension job: it keeps every
// organization's calendar materialized from its last generated mark out to a
// rolling horizon, and sweeps overdue instances along the way.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"taxcal/internal/plangate"
	id "taxcal/pkg/domain"
	"taxcal/pkg/requestcontext"
)

// DefaultHorizon is how far past now each run materializes.
const DefaultHorizon = 90 * 24 * time.Hour

// defaultConcurrency bounds the per-organization fan-out.
const defaultConcurrency = 4

// CalendarService is the slice of the calendar service the job drives.
type CalendarService interface {
	Generate(ctx context.Context, orgID id.OrgID, from, to time.Time) (int, error)
	SweepOverdue(ctx context.Context, orgID id.OrgID) (int64, error)
}

// OrganizationLister enumerates organizations with a compliance profile.
type OrganizationLister interface {
	ListOrganizations(ctx context.Context) ([]id.OrgID, error)
}

// Scheduler owns the cron entry and the horizon-extension job.
type Scheduler struct {
	service     CalendarService
	orgs        OrganizationLister
	marks       HighWaterStore
	gate        plangate.Gate
	logger      *slog.Logger
	horizon     time.Duration
	concurrency int
	cron        *cron.Cron
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithHorizon overrides the generation horizon.
func WithHorizon(h time.Duration) Option {
	return func(s *Scheduler) { s.horizon = h }
}

// WithConcurrency overrides the per-organization fan-out bound.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) { s.concurrency = n }
}

// New constructs the scheduler.
func New(service CalendarService, orgs OrganizationLister, marks HighWaterStore, gate plangate.Gate, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		service:     service,
		orgs:        orgs,
		marks:       marks,
		gate:        gate,
		logger:      logger,
		horizon:     DefaultHorizon,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the job with the given cron expression and starts the cron
// loop in its own goroutine.
func (s *Scheduler) Start(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Run(context.Background()); err != nil {
			s.logger.Error("scheduled generation run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Run executes one horizon-extension pass over all organizations. One
// organization's failure does not stop the others; the first error is
// reported after every organization has been attempted.
func (s *Scheduler) Run(ctx context.Context) error {
	now := time.Now()
	ctx = requestcontext.WithTime(ctx, now)

	orgIDs, err := s.orgs.ListOrganizations(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	var (
		mu       sync.Mutex
		firstErr error
	)
	for _, orgID := range orgIDs {
		g.Go(func() error {
			if err := s.runOrganization(ctx, orgID, now); err != nil {
				s.logger.ErrorContext(ctx, "organization generation failed",
					"organization_id", orgID,
					"error", err,
				)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			// Errors are collected, not returned: returning would cancel
			// the group and starve the remaining organizations.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return firstErr
}

// runOrganization extends one organization's calendar and advances its mark.
func (s *Scheduler) runOrganization(ctx context.Context, orgID id.OrgID, now time.Time) error {
	allowed, err := s.gate.Allowed(ctx, orgID, plangate.FeatureTaxCalendar)
	if err != nil {
		s.logger.WarnContext(ctx, "plan gate unavailable, generating anyway",
			"organization_id", orgID,
			"error", err,
		)
		allowed = true
	}
	if !allowed {
		return nil
	}

	from, err := s.marks.Get(ctx, orgID)
	if err != nil {
		return err
	}
	// A mark in the past means the scheduler was down; keep it as the window
	// start so the elapsed periods still materialize. Replaying the overlap
	// is harmless under the store's uniqueness contract.
	if from.IsZero() {
		from = now
	}
	to := now.Add(s.horizon)
	if !from.Before(to) {
		return nil
	}

	created, err := s.service.Generate(ctx, orgID, from, to)
	if err != nil {
		return err
	}
	if _, err := s.service.SweepOverdue(ctx, orgID); err != nil {
		return err
	}
	if err := s.marks.Set(ctx, orgID, to); err != nil {
		return err
	}

	if created > 0 {
		s.logger.InfoContext(ctx, "calendar horizon extended",
			"organization_id", orgID,
			"from", from,
			"to", to,
			"created", created,
		)
	}
	return nil
}
