// Package service orchestrates the compliance calendar: profile upserts with
// first-time seeding, template management, idempotent instance
// materialization and the instance lifecycle.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	calmetrics "taxcal/internal/calendar/metrics"
	"taxcal/internal/calendar/models"
	"taxcal/internal/documents"
	"taxcal/internal/revenue"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
	"taxcal/pkg/platform/audit"
	"taxcal/pkg/platform/sentinel"
)

// ProfileStore persists compliance profiles.
type ProfileStore interface {
	FindByOrg(ctx context.Context, orgID id.OrgID) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	ListOrganizations(ctx context.Context) ([]id.OrgID, error)
}

// TemplateStore persists obligation templates.
type TemplateStore interface {
	Create(ctx context.Context, t *models.Template) error
	FindByID(ctx context.Context, templateID id.TemplateID, orgID id.OrgID) (*models.Template, error)
	ListByOrg(ctx context.Context, orgID id.OrgID) ([]*models.Template, error)
	ListActiveByOrg(ctx context.Context, orgID id.OrgID) ([]*models.Template, error)
	CountByProfile(ctx context.Context, profileID id.ProfileID) (int, error)
	Execute(ctx context.Context, templateID id.TemplateID, orgID id.OrgID, validate func(*models.Template) error, apply func(*models.Template)) (*models.Template, error)
}

// InstanceStore persists materialized instances. CreateIfAbsent must enforce
// (template, period) uniqueness and return sentinel.ErrConflict on a
// duplicate. The materializer's idempotence rests on that contract, not on
// a prior existence read.
type InstanceStore interface {
	CreateIfAbsent(ctx context.Context, inst *models.Instance) error
	FindByID(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID) (*models.Instance, error)
	ListByOrg(ctx context.Context, orgID id.OrgID, from, to time.Time) ([]*models.Instance, error)
	MarkOverdueBefore(ctx context.Context, orgID id.OrgID, before time.Time) (int64, error)
	Execute(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, validate func(*models.Instance) error, apply func(*models.Instance)) (*models.Instance, error)
	CountByOrg(ctx context.Context, orgID id.OrgID) (int, error)
}

// AttachmentStore persists instance-to-document links.
type AttachmentStore interface {
	Create(ctx context.Context, a *models.Attachment) error
	ListByInstance(ctx context.Context, instanceID id.InstanceID) ([]*models.Attachment, error)
}

// Service exposes the compliance calendar use cases.
type Service struct {
	profiles    ProfileStore
	templates   TemplateStore
	instances   InstanceStore
	attachments AttachmentStore
	revenue     revenue.Source
	documents   documents.Checker
	logger      *slog.Logger
	metrics     *calmetrics.Metrics
	audit       audit.Publisher
	tracer      trace.Tracer
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches calendar metrics.
func WithMetrics(m *calmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher attaches an audit sink.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// New constructs the calendar service with its required collaborators.
func New(profiles ProfileStore, templates TemplateStore, instances InstanceStore, attachments AttachmentStore, rev revenue.Source, docs documents.Checker, opts ...Option) *Service {
	s := &Service{
		profiles:    profiles,
		templates:   templates,
		instances:   instances,
		attachments: attachments,
		revenue:     rev,
		documents:   docs,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		audit:       audit.Nop{},
		tracer:      otel.Tracer("taxcal/calendar"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireOrgID(orgID id.OrgID) error {
	if orgID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "organization id is required")
	}
	return nil
}

// wrapStoreErr translates store errors into domain errors. Validation and
// other domain errors raised inside Execute callbacks pass through untouched.
func wrapStoreErr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

func wrapProfileErr(err error) error {
	return wrapStoreErr(err, "compliance profile not found", "profile store failure")
}

func wrapTemplateErr(err error) error {
	return wrapStoreErr(err, "template not found", "template store failure")
}

func wrapInstanceErr(err error) error {
	return wrapStoreErr(err, "instance not found", "instance store failure")
}
