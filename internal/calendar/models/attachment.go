package models

import (
	"time"

	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
)

// Attachment links an instance to an externally stored document. The document
// itself lives in the document service; this is only the reference.
type Attachment struct {
	ID             id.AttachmentID `json:"id"`
	InstanceID     id.InstanceID   `json:"instance_id"`
	OrganizationID id.OrgID        `json:"organization_id"`
	DocumentID     id.DocumentID   `json:"document_id"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      id.UserID       `json:"created_by,omitempty"`
}

// NewAttachment constructs an attachment reference.
func NewAttachment(attachmentID id.AttachmentID, instanceID id.InstanceID, orgID id.OrgID, documentID id.DocumentID, by id.UserID, now time.Time) (*Attachment, error) {
	if documentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "document id is required")
	}
	return &Attachment{
		ID:             attachmentID,
		InstanceID:     instanceID,
		OrganizationID: orgID,
		DocumentID:     documentID,
		CreatedAt:      now,
		CreatedBy:      by,
	}, nil
}
