package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	id "taxcal/pkg/domain"
)

// PostgresChecker checks ownership against the document service's table.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed document checker.
func NewPostgres(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

func (s *PostgresChecker) Exists(ctx context.Context, documentID id.DocumentID, orgID id.OrgID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM documents
			WHERE id = $1 AND organization_id = $2
		)`,
		uuid.UUID(documentID), uuid.UUID(orgID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document ownership: %w", err)
	}
	return exists, nil
}
