// Package audit captures key domain actions as transport-agnostic events.
// Publishers fan events out to whatever sink the deployment configures
// (Kafka in production, memory in tests, nop when auditing is disabled).
package audit

import (
	"time"

	id "taxcal/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time
	OrgID     id.OrgID
	// ActorID is the acting user; zero for system-initiated work
	// (scheduled generation, sweeps).
	ActorID id.UserID
	Action  string
	// Subject identifies the affected entity (profile, template or
	// instance ID as a string).
	Subject string
	Detail  string
	// RequestID is the correlation ID from the HTTP request context,
	// empty for scheduler runs.
	RequestID string
}

// AuditEvent enumerates the actions this service records.
type AuditEvent string

const (
	EventProfileCreated      AuditEvent = "profile_created"
	EventProfileUpdated      AuditEvent = "profile_updated"
	EventProfileSeeded       AuditEvent = "profile_seeded"
	EventTemplateCreated     AuditEvent = "template_created"
	EventTemplateUpdated     AuditEvent = "template_updated"
	EventInstanceStarted     AuditEvent = "instance_started"
	EventInstanceDone        AuditEvent = "instance_done"
	EventInstanceSkipped     AuditEvent = "instance_skipped"
	EventDocumentAttached    AuditEvent = "document_attached"
	EventGenerationCompleted AuditEvent = "generation_completed"
)
