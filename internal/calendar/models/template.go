package models

import (
	"strings"
	"time"

	"taxcal/internal/calendar/recurrence"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
)

// TemplateKind classifies what an obligation asks of the organization.
type TemplateKind string

const (
	KindTask    TemplateKind = "TASK"
	KindReport  TemplateKind = "REPORT"
	KindPayment TemplateKind = "PAYMENT"
)

var validKinds = map[TemplateKind]bool{
	KindTask:    true,
	KindReport:  true,
	KindPayment: true,
}

// ParseTemplateKind constructs a TemplateKind from external input.
func ParseTemplateKind(s string) (TemplateKind, error) {
	k := TemplateKind(strings.ToUpper(strings.TrimSpace(s)))
	if !validKinds[k] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid template kind: "+s)
	}
	return k, nil
}

// EstimateSource names where a payment template's amount estimate comes from.
type EstimateSource string

const (
	// EstimateNone means the template carries no amount estimation.
	EstimateNone EstimateSource = ""
	// EstimatePaidInvoices sums PAID invoice totals over the period.
	EstimatePaidInvoices EstimateSource = "paid_invoices"
)

// ParseEstimateSource constructs an EstimateSource from external input.
func ParseEstimateSource(s string) (EstimateSource, error) {
	switch EstimateSource(strings.TrimSpace(s)) {
	case EstimateNone:
		return EstimateNone, nil
	case EstimatePaidInvoices:
		return EstimatePaidInvoices, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unsupported estimate source: "+s)
	}
}

// RuleMeta is the typed form of a template's rule metadata document.
type RuleMeta struct {
	// Period overrides the period unit derived from the rule's frequency.
	// Empty means derive from frequency.
	Period recurrence.Unit `json:"period,omitempty"`
	// EstimateSource enables amount estimation at materialization time.
	EstimateSource EstimateSource `json:"estimateSource,omitempty"`
}

// Template is a recurring obligation definition owned by a profile.
//
// Invariants:
//   - Title is non-empty and at most 200 characters
//   - RRule parses (FREQ in {MONTHLY, QUARTERLY, YEARLY}, positive INTERVAL)
//   - DueOffsetDays is non-negative
//   - deactivated via Active, never hard-deleted by the engine
type Template struct {
	ID             id.TemplateID `json:"id"`
	ProfileID      id.ProfileID  `json:"profile_id"`
	OrganizationID id.OrgID      `json:"organization_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Kind           TemplateKind  `json:"kind"`
	RRule          string        `json:"rrule"`
	DueOffsetDays  int           `json:"due_offset_days"`
	// DueTime is the local time-of-day "HH:MM"; empty falls back to the
	// engine default at due-date computation.
	DueTime   string    `json:"due_time,omitempty"`
	RuleMeta  RuleMeta  `json:"rule_meta"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTemplate constructs a template, enforcing construction invariants.
// The rule string is parsed here so a template that reaches storage is always
// materializable.
func NewTemplate(templateID id.TemplateID, profileID id.ProfileID, orgID id.OrgID, title string, kind TemplateKind, rrule string, dueOffsetDays int, dueTime string, meta RuleMeta, now time.Time) (*Template, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "template title is required")
	}
	if len(title) > 200 {
		return nil, dErrors.New(dErrors.CodeValidation, "template title must be 200 characters or less")
	}
	if !validKinds[kind] {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid template kind")
	}
	if _, err := recurrence.ParseRule(rrule); err != nil {
		return nil, err
	}
	if dueOffsetDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "due offset days must not be negative")
	}
	return &Template{
		ID:             templateID,
		ProfileID:      profileID,
		OrganizationID: orgID,
		Title:          title,
		Kind:           kind,
		RRule:          rrule,
		DueOffsetDays:  dueOffsetDays,
		DueTime:        dueTime,
		RuleMeta:       meta,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// PeriodUnit resolves the period unit for enumeration: the rule metadata
// override wins, otherwise the unit derives from the parsed rule's frequency.
func (t *Template) PeriodUnit() (recurrence.Unit, error) {
	if t.RuleMeta.Period != "" {
		return t.RuleMeta.Period, nil
	}
	rule, err := recurrence.ParseRule(t.RRule)
	if err != nil {
		return "", err
	}
	return rule.Freq.Unit(), nil
}
