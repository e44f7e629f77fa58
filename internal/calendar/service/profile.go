package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/audit"
	"taxcal/pkg/platform/sentinel"
	"taxcal/pkg/requestcontext"
)

// UpsertProfileParams carries the validated profile fields.
type UpsertProfileParams struct {
	Jurisdiction string
	EntityType   string
	Settings     models.Settings
	Timezone     string
}

// UpsertProfile creates or updates the organization's compliance profile.
// The first upsert for a profile with no templates also seeds the default
// obligation set.
func (s *Service) UpsertProfile(ctx context.Context, orgID id.OrgID, params UpsertProfileParams) (*models.Profile, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	profile, err := s.profiles.FindByOrg(ctx, orgID)
	created := false
	switch {
	case err == nil:
		profile.ApplyUpsert(params.Jurisdiction, params.EntityType, params.Settings, params.Timezone, now)
	case errors.Is(err, sentinel.ErrNotFound):
		profile, err = models.NewProfile(id.ProfileID(uuid.New()), orgID, params.Jurisdiction, params.EntityType, params.Settings, params.Timezone, now)
		if err != nil {
			return nil, err
		}
		created = true
	default:
		return nil, wrapProfileErr(err)
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, wrapProfileErr(err)
	}

	action := audit.EventProfileUpdated
	if created {
		action = audit.EventProfileCreated
	}
	s.emitAudit(ctx, orgID, action, profile.ID.String(), "jurisdiction="+profile.Jurisdiction)

	count, err := s.templates.CountByProfile(ctx, profile.ID)
	if err != nil {
		return nil, wrapTemplateErr(err)
	}
	if count == 0 {
		seeded, err := s.seedTemplates(ctx, profile, now)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "seeded default templates",
			"organization_id", orgID,
			"profile_id", profile.ID,
			"count", seeded,
		)
		if s.metrics != nil {
			s.metrics.AddTemplatesSeeded(seeded)
		}
		s.emitAudit(ctx, orgID, audit.EventProfileSeeded, profile.ID.String(), fmt.Sprintf("templates=%d", seeded))
	}

	return profile, nil
}

// GetProfile returns the organization's compliance profile.
func (s *Service) GetProfile(ctx context.Context, orgID id.OrgID) (*models.Profile, error) {
	if err := requireOrgID(orgID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, wrapProfileErr(err)
	}
	return profile, nil
}
