package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
	"taxcal/pkg/platform/audit"
	"taxcal/pkg/requestcontext"
)

// SweepOverdue promotes every UPCOMING or IN_PROGRESS instance whose due time
// has passed to OVERDUE and returns how many moved. DONE and SKIPPED are
// never touched. Safe to run repeatedly; a second sweep at the same time
// moves nothing.
func (s *Service) SweepOverdue(ctx context.Context, orgID id.OrgID) (int64, error) {
	if err := requireOrgID(orgID); err != nil {
		return 0, err
	}
	now := requestcontext.Now(ctx)
	moved, err := s.instances.MarkOverdueBefore(ctx, orgID, now)
	if err != nil {
		return 0, wrapInstanceErr(err)
	}
	if moved > 0 {
		s.logger.InfoContext(ctx, "overdue sweep",
			"organization_id", orgID,
			"transitioned", moved,
		)
		if s.metrics != nil {
			s.metrics.AddOverdueTransitions(moved)
		}
	}
	return moved, nil
}

// ListEvents returns the organization's instances with due times inside
// [from, to), ordered by due time. The read is preceded by an overdue sweep
// so callers never see a stale UPCOMING past its due time.
func (s *Service) ListEvents(ctx context.Context, orgID id.OrgID, from, to time.Time) ([]*models.Instance, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, dErrors.New(dErrors.CodeValidation, "listing window start must precede end")
	}
	if _, err := s.SweepOverdue(ctx, orgID); err != nil {
		return nil, err
	}
	instances, err := s.instances.ListByOrg(ctx, orgID, from, to)
	if err != nil {
		return nil, wrapInstanceErr(err)
	}
	return instances, nil
}

// StartInstance moves an UPCOMING instance to IN_PROGRESS.
func (s *Service) StartInstance(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID) (*models.Instance, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	inst, err := s.instances.Execute(ctx, instanceID, orgID,
		func(i *models.Instance) error { return i.CanStart() },
		func(i *models.Instance) { i.ApplyStart(now) },
	)
	if err != nil {
		return nil, wrapInstanceErr(err)
	}
	s.emitAudit(ctx, orgID, audit.EventInstanceStarted, inst.ID.String(), "")
	return inst, nil
}

// MarkDone completes an instance, recording the acting user and time.
// Completing an already-DONE instance overwrites doneAt/doneBy; a SKIPPED
// instance stays skipped and the call is rejected.
func (s *Service) MarkDone(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, note string) (*models.Instance, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	by := requestcontext.UserID(ctx)
	inst, err := s.instances.Execute(ctx, instanceID, orgID,
		func(i *models.Instance) error { return i.CanComplete() },
		func(i *models.Instance) { i.ApplyDone(now, by, note) },
	)
	if err != nil {
		return nil, wrapInstanceErr(err)
	}
	s.emitAudit(ctx, orgID, audit.EventInstanceDone, inst.ID.String(), "")
	return inst, nil
}

// MarkSkipped skips an instance. Skipping is allowed from any state,
// including DONE, and is terminal.
func (s *Service) MarkSkipped(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, note string) (*models.Instance, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	inst, err := s.instances.Execute(ctx, instanceID, orgID,
		nil,
		func(i *models.Instance) { i.ApplySkip(now, note) },
	)
	if err != nil {
		return nil, wrapInstanceErr(err)
	}
	s.emitAudit(ctx, orgID, audit.EventInstanceSkipped, inst.ID.String(), "")
	return inst, nil
}

// AttachDocument links an existing, organization-owned document to an
// instance. The document content stays in the document service.
func (s *Service) AttachDocument(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, documentID id.DocumentID) (*models.Attachment, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	inst, err := s.instances.FindByID(ctx, instanceID, orgID)
	if err != nil {
		return nil, wrapInstanceErr(err)
	}

	owned, err := s.documents.Exists(ctx, documentID, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document lookup failed")
	}
	if !owned {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}

	now := requestcontext.Now(ctx)
	att, err := models.NewAttachment(id.AttachmentID(uuid.New()), inst.ID, orgID, documentID, requestcontext.UserID(ctx), now)
	if err != nil {
		return nil, err
	}
	if err := s.attachments.Create(ctx, att); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attachment store failure")
	}
	s.emitAudit(ctx, orgID, audit.EventDocumentAttached, inst.ID.String(), "document="+documentID.String())
	return att, nil
}

// ListAttachments returns an instance's document references. The instance
// lookup enforces organization scoping.
func (s *Service) ListAttachments(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID) ([]*models.Attachment, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	inst, err := s.instances.FindByID(ctx, instanceID, orgID)
	if err != nil {
		return nil, wrapInstanceErr(err)
	}
	attachments, err := s.attachments.ListByInstance(ctx, inst.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attachment store failure")
	}
	return attachments, nil
}
