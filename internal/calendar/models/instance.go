package models

import (
	"strings"
	"time"

	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
)

// InstanceStatus is the lifecycle state of a materialized obligation.
//
// State machine:
//
//	UPCOMING ──start──▶ IN_PROGRESS
//	UPCOMING / IN_PROGRESS ──sweep (dueAt < now)──▶ OVERDUE
//	any non-SKIPPED ──done──▶ DONE (re-done overwrites doneAt/doneBy)
//	any ──skip──▶ SKIPPED (including from DONE, by explicit policy)
//
// DONE and SKIPPED are terminal for the sweep; SKIPPED is terminal
// absolutely.
type InstanceStatus string

const (
	StatusUpcoming   InstanceStatus = "UPCOMING"
	StatusInProgress InstanceStatus = "IN_PROGRESS"
	StatusOverdue    InstanceStatus = "OVERDUE"
	StatusDone       InstanceStatus = "DONE"
	StatusSkipped    InstanceStatus = "SKIPPED"
)

var validStatuses = map[InstanceStatus]bool{
	StatusUpcoming:   true,
	StatusInProgress: true,
	StatusOverdue:    true,
	StatusDone:       true,
	StatusSkipped:    true,
}

// ParseInstanceStatus constructs an InstanceStatus from external input.
func ParseInstanceStatus(s string) (InstanceStatus, error) {
	st := InstanceStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid instance status: "+s)
	}
	return st, nil
}

// IsTerminal reports whether the sweep must leave this status alone.
func (s InstanceStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// InstanceMeta is the typed metadata frozen onto an instance at
// materialization. The estimate is a snapshot; later invoice changes do not
// update it.
type InstanceMeta struct {
	EstimatedAmount string     `json:"estimatedAmount,omitempty"`
	EstimateSource  string     `json:"estimateSource,omitempty"`
	EstimatedAt     *time.Time `json:"estimatedAt,omitempty"`
}

// Instance is one materialized occurrence of a template for a specific
// period.
//
// Invariants:
//   - at most one instance exists per (TemplateID, PeriodStart, PeriodEnd);
//     the store enforces this with a uniqueness constraint and the
//     materializer treats a constraint hit as an idempotent skip
//   - [PeriodStart, PeriodEnd) is half-open and calendar-aligned
//   - created only by the materializer; mutated only by lifecycle actions;
//     never deleted
type Instance struct {
	ID             id.InstanceID  `json:"id"`
	TemplateID     id.TemplateID  `json:"template_id"`
	OrganizationID id.OrgID       `json:"organization_id"`
	PeriodStart    time.Time      `json:"period_start"`
	PeriodEnd      time.Time      `json:"period_end"`
	DueAt          time.Time      `json:"due_at"`
	Status         InstanceStatus `json:"status"`
	Note           string         `json:"note,omitempty"`
	DoneAt         *time.Time     `json:"done_at,omitempty"`
	DoneBy         id.UserID      `json:"done_by,omitempty"`
	Metadata       InstanceMeta   `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewInstance constructs an UPCOMING instance for a (template, period) pair.
func NewInstance(instanceID id.InstanceID, templateID id.TemplateID, orgID id.OrgID, periodStart, periodEnd, dueAt time.Time, meta InstanceMeta, now time.Time) (*Instance, error) {
	if !periodStart.Before(periodEnd) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "period start must precede period end")
	}
	return &Instance{
		ID:             instanceID,
		TemplateID:     templateID,
		OrganizationID: orgID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		DueAt:          dueAt,
		Status:         StatusUpcoming,
		Metadata:       meta,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanStart checks the explicit UPCOMING -> IN_PROGRESS transition.
func (i *Instance) CanStart() error {
	if i.Status != StatusUpcoming {
		return dErrors.New(dErrors.CodeConflict, "only upcoming instances can be started")
	}
	return nil
}

// ApplyStart transitions the instance to IN_PROGRESS.
func (i *Instance) ApplyStart(now time.Time) {
	i.Status = StatusInProgress
	i.UpdatedAt = now
}

// CanComplete checks the done transition. Allowed from any non-terminal
// state; re-completing an already-DONE instance is explicitly allowed and
// overwrites doneAt/doneBy. SKIPPED stays skipped.
func (i *Instance) CanComplete() error {
	if i.Status == StatusSkipped {
		return dErrors.New(dErrors.CodeConflict, "skipped instances cannot be completed")
	}
	return nil
}

// ApplyDone marks the instance DONE, recording who and when.
func (i *Instance) ApplyDone(now time.Time, by id.UserID, note string) {
	i.Status = StatusDone
	i.DoneAt = &now
	i.DoneBy = by
	if note != "" {
		i.Note = note
	}
	i.UpdatedAt = now
}

// ApplySkip marks the instance SKIPPED. Unconditional by explicit policy,
// including from DONE.
func (i *Instance) ApplySkip(now time.Time, note string) {
	i.Status = StatusSkipped
	if note != "" {
		i.Note = note
	}
	i.UpdatedAt = now
}
