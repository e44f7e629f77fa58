package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/sentinel"
)

// PostgresStore persists compliance profiles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByOrg(ctx context.Context, orgID id.OrgID) (*models.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, jurisdiction, entity_type, settings, timezone, created_at, updated_at
		FROM compliance_profiles
		WHERE organization_id = $1`,
		uuid.UUID(orgID),
	)

	var (
		p        models.Profile
		pID      uuid.UUID
		oID      uuid.UUID
		settings []byte
	)
	err := row.Scan(&pID, &oID, &p.Jurisdiction, &p.EntityType, &settings, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	p.ID = id.ProfileID(pID)
	p.OrganizationID = id.OrgID(oID)
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &p.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal profile settings: %w", err)
		}
	}
	return &p, nil
}

// Upsert inserts the profile or, when the organization already has one,
// overwrites its mutable fields. The unique constraint on organization_id
// makes concurrent first upserts converge on a single row.
func (s *PostgresStore) Upsert(ctx context.Context, p *models.Profile) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("marshal profile settings: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO compliance_profiles (id, organization_id, jurisdiction, entity_type, settings, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (organization_id) DO UPDATE SET
			jurisdiction = EXCLUDED.jurisdiction,
			entity_type  = EXCLUDED.entity_type,
			settings     = EXCLUDED.settings,
			timezone     = EXCLUDED.timezone,
			updated_at   = EXCLUDED.updated_at`,
		uuid.UUID(p.ID), uuid.UUID(p.OrganizationID), p.Jurisdiction, p.EntityType,
		settings, p.Timezone, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOrganizations(ctx context.Context) ([]id.OrgID, error) {
	rows, err := s.pool.Query(ctx, `SELECT organization_id FROM compliance_profiles ORDER BY organization_id`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var out []id.OrgID
	for rows.Next() {
		var oID uuid.UUID
		if err := rows.Scan(&oID); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, id.OrgID(oID))
	}
	return out, rows.Err()
}
