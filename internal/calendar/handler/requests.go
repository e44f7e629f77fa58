package handler

import (
	"encoding/json"
	"strings"
	"time"

	"taxcal/internal/calendar/models"
	"taxcal/internal/calendar/recurrence"
	"taxcal/internal/calendar/service"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
)

// UpsertProfileRequest is the HTTP request body for POST /tax-calendar/profile.
type UpsertProfileRequest struct {
	Jurisdiction string          `json:"jurisdiction"`
	EntityType   string          `json:"entity_type"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	Timezone     string          `json:"timezone,omitempty"`

	// Parsed values (populated by Validate)
	parsedSettings models.Settings
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpsertProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Jurisdiction = strings.TrimSpace(r.Jurisdiction)
	if r.Jurisdiction == "" {
		return dErrors.New(dErrors.CodeValidation, "jurisdiction is required")
	}
	r.EntityType = strings.TrimSpace(r.EntityType)

	settings, err := models.ParseSettings(r.Settings)
	if err != nil {
		return err
	}
	r.parsedSettings = settings
	return nil
}

// Params returns the validated profile fields.
func (r *UpsertProfileRequest) Params() service.UpsertProfileParams {
	return service.UpsertProfileParams{
		Jurisdiction: r.Jurisdiction,
		EntityType:   r.EntityType,
		Settings:     r.parsedSettings,
		Timezone:     r.Timezone,
	}
}

// CreateTemplateRequest is the HTTP request body for POST /tax-calendar/templates.
type CreateTemplateRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Kind          string `json:"kind"`
	RRule         string `json:"rrule"`
	DueOffsetDays int    `json:"due_offset_days"`
	DueTime       string `json:"due_time,omitempty"`
	Meta          struct {
		Period         string `json:"period,omitempty"`
		EstimateSource string `json:"estimate_source,omitempty"`
	} `json:"meta"`

	// Parsed values (populated by Validate)
	parsedKind models.TemplateKind
	parsedMeta models.RuleMeta
}

// Validate validates and parses the request.
func (r *CreateTemplateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}

	kind, err := models.ParseTemplateKind(r.Kind)
	if err != nil {
		return err
	}
	r.parsedKind = kind

	if _, err := recurrence.ParseRule(r.RRule); err != nil {
		return err
	}
	if r.DueOffsetDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "due_offset_days must not be negative")
	}

	meta := models.RuleMeta{}
	if r.Meta.Period != "" {
		unit, err := recurrence.ParseUnit(r.Meta.Period)
		if err != nil {
			return err
		}
		meta.Period = unit
	}
	source, err := models.ParseEstimateSource(r.Meta.EstimateSource)
	if err != nil {
		return err
	}
	meta.EstimateSource = source
	r.parsedMeta = meta
	return nil
}

// Params returns the validated template fields.
func (r *CreateTemplateRequest) Params() service.CreateTemplateParams {
	return service.CreateTemplateParams{
		Title:         r.Title,
		Description:   r.Description,
		Kind:          r.parsedKind,
		RRule:         r.RRule,
		DueOffsetDays: r.DueOffsetDays,
		DueTime:       r.DueTime,
		RuleMeta:      r.parsedMeta,
	}
}

// UpdateTemplateRequest is the HTTP request body for
// PATCH /tax-calendar/templates/{templateID}. Absent fields are left as-is.
type UpdateTemplateRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	RRule         *string `json:"rrule,omitempty"`
	DueOffsetDays *int    `json:"due_offset_days,omitempty"`
	DueTime       *string `json:"due_time,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

// Validate validates the request. Field-level rules are enforced by the
// service inside the store's concurrency control; the handler only rejects
// an empty patch.
func (r *UpdateTemplateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Title == nil && r.Description == nil && r.RRule == nil &&
		r.DueOffsetDays == nil && r.DueTime == nil && r.Active == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}
	return nil
}

// Params returns the partial update.
func (r *UpdateTemplateRequest) Params() service.UpdateTemplateParams {
	return service.UpdateTemplateParams{
		Title:         r.Title,
		Description:   r.Description,
		RRule:         r.RRule,
		DueOffsetDays: r.DueOffsetDays,
		DueTime:       r.DueTime,
		Active:        r.Active,
	}
}

// GenerateRequest is the HTTP request body for POST /tax-calendar/events/generate.
type GenerateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`

	// Parsed values (populated by Validate)
	parsedFrom time.Time
	parsedTo   time.Time
}

// Validate validates and parses the request.
func (r *GenerateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	from, err := parseWindowTime(r.From, "from")
	if err != nil {
		return err
	}
	to, err := parseWindowTime(r.To, "to")
	if err != nil {
		return err
	}
	if !from.Before(to) {
		return dErrors.New(dErrors.CodeValidation, "from must precede to")
	}
	r.parsedFrom = from
	r.parsedTo = to
	return nil
}

// Window returns the validated [from, to) generation window.
func (r *GenerateRequest) Window() (time.Time, time.Time) {
	return r.parsedFrom, r.parsedTo
}

// NoteRequest is the HTTP request body for the done and skip actions.
type NoteRequest struct {
	Note string `json:"note,omitempty"`
}

// Validate validates the request. The body is optional for these actions, so
// an empty note is fine.
func (r *NoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Note) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "note must be at most 2000 characters")
	}
	return nil
}

// AttachDocumentRequest is the HTTP request body for
// POST /tax-calendar/events/{id}/attachments.
type AttachDocumentRequest struct {
	DocumentID string `json:"document_id"`

	// Parsed values (populated by Validate)
	parsedDocumentID id.DocumentID
}

// Validate validates and parses the request.
func (r *AttachDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.DocumentID) == "" {
		return dErrors.New(dErrors.CodeValidation, "document_id is required")
	}
	docID, err := id.ParseDocumentID(r.DocumentID)
	if err != nil {
		return err
	}
	r.parsedDocumentID = docID
	return nil
}

// ParsedDocumentID returns the validated document ID.
func (r *AttachDocumentRequest) ParsedDocumentID() id.DocumentID {
	return r.parsedDocumentID
}

// parseWindowTime accepts RFC 3339 timestamps and bare dates.
func parseWindowTime(s, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}
