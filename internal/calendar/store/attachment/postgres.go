package attachment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
)

// PostgresStore persists attachments in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed attachment store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Attachment) error {
	var createdBy *uuid.UUID
	if !a.CreatedBy.IsNil() {
		u := uuid.UUID(a.CreatedBy)
		createdBy = &u
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_attachments (id, instance_id, organization_id, document_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(a.ID), uuid.UUID(a.InstanceID), uuid.UUID(a.OrganizationID),
		uuid.UUID(a.DocumentID), a.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByInstance(ctx context.Context, instanceID id.InstanceID) ([]*models.Attachment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, instance_id, organization_id, document_id, created_at, created_by
		FROM event_attachments
		WHERE instance_id = $1
		ORDER BY created_at`,
		uuid.UUID(instanceID),
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var out []*models.Attachment
	for rows.Next() {
		var (
			a         models.Attachment
			aID       uuid.UUID
			iID       uuid.UUID
			oID       uuid.UUID
			dID       uuid.UUID
			createdBy *uuid.UUID
		)
		if err := rows.Scan(&aID, &iID, &oID, &dID, &a.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		a.ID = id.AttachmentID(aID)
		a.InstanceID = id.InstanceID(iID)
		a.OrganizationID = id.OrgID(oID)
		a.DocumentID = id.DocumentID(dID)
		if createdBy != nil {
			a.CreatedBy = id.UserID(*createdBy)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
