package service

import (
	"context"

	"github.com/google/uuid"

	"taxcal/internal/calendar/models"
	"taxcal/internal/calendar/recurrence"
	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
	"taxcal/pkg/platform/audit"
	"taxcal/pkg/requestcontext"
)

// CreateTemplateParams carries the validated fields for a custom template.
type CreateTemplateParams struct {
	Title         string
	Description   string
	Kind          models.TemplateKind
	RRule         string
	DueOffsetDays int
	DueTime       string
	RuleMeta      models.RuleMeta
}

// CreateTemplate adds a custom obligation template to the organization's
// profile. The profile must already exist.
func (s *Service) CreateTemplate(ctx context.Context, orgID id.OrgID, params CreateTemplateParams) (*models.Template, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, wrapProfileErr(err)
	}

	now := requestcontext.Now(ctx)
	tmpl, err := models.NewTemplate(
		id.TemplateID(uuid.New()),
		profile.ID,
		orgID,
		params.Title,
		params.Kind,
		params.RRule,
		params.DueOffsetDays,
		params.DueTime,
		params.RuleMeta,
		now,
	)
	if err != nil {
		return nil, err
	}
	tmpl.Description = params.Description

	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, wrapTemplateErr(err)
	}
	s.emitAudit(ctx, orgID, audit.EventTemplateCreated, tmpl.ID.String(), "title="+tmpl.Title)
	return tmpl, nil
}

// UpdateTemplateParams carries optional field updates; nil means leave as-is.
type UpdateTemplateParams struct {
	Title         *string
	Description   *string
	RRule         *string
	DueOffsetDays *int
	DueTime       *string
	Active        *bool
}

// UpdateTemplate applies a partial update to a template under the store's
// concurrency control. An rrule change takes effect for future generation
// only; existing instances keep their periods.
func (s *Service) UpdateTemplate(ctx context.Context, templateID id.TemplateID, orgID id.OrgID, params UpdateTemplateParams) (*models.Template, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	validate := func(t *models.Template) error {
		if params.Title != nil {
			if *params.Title == "" {
				return dErrors.New(dErrors.CodeValidation, "template title is required")
			}
			if len(*params.Title) > 200 {
				return dErrors.New(dErrors.CodeValidation, "template title must be 200 characters or less")
			}
		}
		if params.RRule != nil {
			if _, err := recurrence.ParseRule(*params.RRule); err != nil {
				return err
			}
		}
		if params.DueOffsetDays != nil && *params.DueOffsetDays < 0 {
			return dErrors.New(dErrors.CodeValidation, "due offset days must not be negative")
		}
		return nil
	}
	apply := func(t *models.Template) {
		if params.Title != nil {
			t.Title = *params.Title
		}
		if params.Description != nil {
			t.Description = *params.Description
		}
		if params.RRule != nil {
			t.RRule = *params.RRule
		}
		if params.DueOffsetDays != nil {
			t.DueOffsetDays = *params.DueOffsetDays
		}
		if params.DueTime != nil {
			t.DueTime = *params.DueTime
		}
		if params.Active != nil {
			t.Active = *params.Active
		}
		t.UpdatedAt = now
	}

	tmpl, err := s.templates.Execute(ctx, templateID, orgID, validate, apply)
	if err != nil {
		return nil, wrapTemplateErr(err)
	}
	s.emitAudit(ctx, orgID, audit.EventTemplateUpdated, tmpl.ID.String(), "title="+tmpl.Title)
	return tmpl, nil
}

// ListTemplates returns all of the organization's templates, active or not.
func (s *Service) ListTemplates(ctx context.Context, orgID id.OrgID) ([]*models.Template, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	templates, err := s.templates.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, wrapTemplateErr(err)
	}
	return templates, nil
}
