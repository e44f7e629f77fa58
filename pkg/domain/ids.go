// Package domain defines typed identifiers and domain primitives shared across
// modules. IDs are uuid-backed so stores can round-trip them without casts
// leaking into business logic; construct from external input via the Parse
// helpers so malformed values are rejected at the boundary.
package domain

import (
	"github.com/google/uuid"

	dErrors "taxcal/pkg/domain-errors"
)

type (
	// OrgID identifies an organization. Organizations are owned by the
	// identity system; this service only scopes data by them.
	OrgID uuid.UUID

	// UserID identifies an acting user (doneBy, audit actor).
	UserID uuid.UUID

	// ProfileID identifies a compliance profile (1:1 with an organization).
	ProfileID uuid.UUID

	// TemplateID identifies a recurring obligation template.
	TemplateID uuid.UUID

	// InstanceID identifies one materialized obligation occurrence.
	InstanceID uuid.UUID

	// AttachmentID identifies an instance-to-document link.
	AttachmentID uuid.UUID

	// DocumentID references an externally stored document.
	DocumentID uuid.UUID
)

func (id OrgID) String() string        { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id ProfileID) String() string    { return uuid.UUID(id).String() }
func (id TemplateID) String() string   { return uuid.UUID(id).String() }
func (id InstanceID) String() string   { return uuid.UUID(id).String() }
func (id AttachmentID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string   { return uuid.UUID(id).String() }

func (id OrgID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TemplateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id InstanceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseOrgID constructs an OrgID from external input.
func ParseOrgID(s string) (OrgID, error) {
	u, err := parse(s, "organization id")
	return OrgID(u), err
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s, "user id")
	return UserID(u), err
}

// ParseTemplateID constructs a TemplateID from external input.
func ParseTemplateID(s string) (TemplateID, error) {
	u, err := parse(s, "template id")
	return TemplateID(u), err
}

// ParseInstanceID constructs an InstanceID from external input.
func ParseInstanceID(s string) (InstanceID, error) {
	u, err := parse(s, "instance id")
	return InstanceID(u), err
}

// ParseDocumentID constructs a DocumentID from external input.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parse(s, "document id")
	return DocumentID(u), err
}

func parse(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" must not be the nil uuid")
	}
	return u, nil
}
