package service

import (
	"context"

	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/audit"
	"taxcal/pkg/requestcontext"
)

// emitAudit publishes an audit event without failing the surrounding
// operation. An audit outage must not block compliance work.
func (s *Service) emitAudit(ctx context.Context, orgID id.OrgID, action audit.AuditEvent, subject, detail string) {
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		OrgID:     orgID,
		ActorID:   requestcontext.UserID(ctx),
		Action:    string(action),
		Subject:   subject,
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit publish failed",
			"action", action,
			"subject", subject,
			"error", err,
		)
	}
}
