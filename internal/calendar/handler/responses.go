package handler

import (
	"time"

	"taxcal/internal/calendar/models"
)

// ProfileResponse is the HTTP representation of a compliance profile.
type ProfileResponse struct {
	ID           string          `json:"id"`
	Jurisdiction string          `json:"jurisdiction"`
	EntityType   string          `json:"entity_type,omitempty"`
	Settings     models.Settings `json:"settings"`
	Timezone     string          `json:"timezone,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromProfile converts a domain profile to its HTTP representation.
func FromProfile(p *models.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:           p.ID.String(),
		Jurisdiction: p.Jurisdiction,
		EntityType:   p.EntityType,
		Settings:     p.Settings,
		Timezone:     p.Timezone,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// TemplateResponse is the HTTP representation of an obligation template.
type TemplateResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Kind          string           `json:"kind"`
	RRule         string           `json:"rrule"`
	DueOffsetDays int              `json:"due_offset_days"`
	DueTime       string           `json:"due_time,omitempty"`
	Meta          TemplateMetaBody `json:"meta"`
	Active        bool             `json:"active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TemplateMetaBody is the meta portion of a template response.
type TemplateMetaBody struct {
	Period         string `json:"period,omitempty"`
	EstimateSource string `json:"estimate_source,omitempty"`
}

// FromTemplate converts a domain template to its HTTP representation.
func FromTemplate(t *models.Template) *TemplateResponse {
	return &TemplateResponse{
		ID:            t.ID.String(),
		Title:         t.Title,
		Description:   t.Description,
		Kind:          string(t.Kind),
		RRule:         t.RRule,
		DueOffsetDays: t.DueOffsetDays,
		DueTime:       t.DueTime,
		Meta: TemplateMetaBody{
			Period:         string(t.RuleMeta.Period),
			EstimateSource: string(t.RuleMeta.EstimateSource),
		},
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// FromTemplates converts a template list.
func FromTemplates(templates []*models.Template) []*TemplateResponse {
	out := make([]*TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, FromTemplate(t))
	}
	return out
}

// InstanceResponse is the HTTP representation of a calendar event instance.
type InstanceResponse struct {
	ID          string              `json:"id"`
	TemplateID  string              `json:"template_id"`
	PeriodStart time.Time           `json:"period_start"`
	PeriodEnd   time.Time           `json:"period_end"`
	DueAt       time.Time           `json:"due_at"`
	Status      string              `json:"status"`
	Note        string              `json:"note,omitempty"`
	DoneAt      *time.Time          `json:"done_at,omitempty"`
	DoneBy      string              `json:"done_by,omitempty"`
	Metadata    models.InstanceMeta `json:"metadata"`
}

// FromInstance converts a domain instance to its HTTP representation.
func FromInstance(i *models.Instance) *InstanceResponse {
	resp := &InstanceResponse{
		ID:          i.ID.String(),
		TemplateID:  i.TemplateID.String(),
		PeriodStart: i.PeriodStart,
		PeriodEnd:   i.PeriodEnd,
		DueAt:       i.DueAt,
		Status:      string(i.Status),
		Note:        i.Note,
		DoneAt:      i.DoneAt,
		Metadata:    i.Metadata,
	}
	if !i.DoneBy.IsNil() {
		resp.DoneBy = i.DoneBy.String()
	}
	return resp
}

// FromInstances converts an instance list.
func FromInstances(instances []*models.Instance) []*InstanceResponse {
	out := make([]*InstanceResponse, 0, len(instances))
	for _, i := range instances {
		out = append(out, FromInstance(i))
	}
	return out
}

// GenerateResponse reports how many instances a generation run created.
type GenerateResponse struct {
	Created int `json:"created"`
}

// AttachmentResponse is the HTTP representation of a document attachment.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
}

// FromAttachment converts a domain attachment to its HTTP representation.
func FromAttachment(a *models.Attachment) *AttachmentResponse {
	resp := &AttachmentResponse{
		ID:         a.ID.String(),
		DocumentID: a.DocumentID.String(),
		CreatedAt:  a.CreatedAt,
	}
	if !a.CreatedBy.IsNil() {
		resp.CreatedBy = a.CreatedBy.String()
	}
	return resp
}

// FromAttachments converts an attachment list.
func FromAttachments(attachments []*models.Attachment) []*AttachmentResponse {
	out := make([]*AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, FromAttachment(a))
	}
	return out
}
