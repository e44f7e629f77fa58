// Package models holds the compliance calendar aggregates. Constructors
// enforce invariants; state transitions go through Can/Apply pairs so stores
// can run them inside their own locking.
package models

import (
	"bytes"
	"encoding/json"
	"time"

	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
)

// Settings is the typed form of a profile's settings document. It is parsed
// once at the system boundary; business logic never sees the raw JSON.
type Settings struct {
	// HasEmployees switches on payroll obligations during seeding.
	HasEmployees bool `json:"hasEmployees"`
	// VATRegistered is carried for jurisdiction-specific templates; the
	// default seed set does not branch on it yet.
	VATRegistered bool `json:"vatRegistered"`
}

// ParseSettings decodes a raw settings document. An absent document is a
// valid empty Settings; unknown fields are rejected so typos surface at the
// boundary instead of silently disabling obligations.
func ParseSettings(raw json.RawMessage) (Settings, error) {
	if len(raw) == 0 {
		return Settings{}, nil
	}
	var s Settings
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Settings{}, dErrors.New(dErrors.CodeValidation, "settings document is malformed")
	}
	return s, nil
}

// Profile is the per-organization compliance configuration (1:1 with an
// organization).
//
// Invariants:
//   - OrganizationID is set and unique across profiles
//   - Jurisdiction is non-empty
//   - created on first upsert, mutated by later upserts, never deleted
type Profile struct {
	ID             id.ProfileID `json:"id"`
	OrganizationID id.OrgID     `json:"organization_id"`
	Jurisdiction   string       `json:"jurisdiction"`
	EntityType     string       `json:"entity_type"`
	Settings       Settings     `json:"settings"`
	// Timezone is a stored hint only; due-date computation is naive local
	// time and does not consult it.
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile constructs a profile, enforcing construction invariants.
func NewProfile(profileID id.ProfileID, orgID id.OrgID, jurisdiction, entityType string, settings Settings, timezone string, now time.Time) (*Profile, error) {
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile requires an organization")
	}
	if jurisdiction == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "jurisdiction is required")
	}
	return &Profile{
		ID:             profileID,
		OrganizationID: orgID,
		Jurisdiction:   jurisdiction,
		EntityType:     entityType,
		Settings:       settings,
		Timezone:       timezone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyUpsert overwrites the mutable fields from a later upsert.
func (p *Profile) ApplyUpsert(jurisdiction, entityType string, settings Settings, timezone string, now time.Time) {
	p.Jurisdiction = jurisdiction
	p.EntityType = entityType
	p.Settings = settings
	p.Timezone = timezone
	p.UpdatedAt = now
}
