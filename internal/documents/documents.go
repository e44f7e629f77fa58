// Package documents exposes the existence/ownership check the attach action
// needs. Document content and storage live in the document service.
package documents

import (
	"context"

	id "taxcal/pkg/domain"
)

// Checker reports whether a document exists and belongs to the organization.
type Checker interface {
	Exists(ctx context.Context, documentID id.DocumentID, orgID id.OrgID) (bool, error)
}
