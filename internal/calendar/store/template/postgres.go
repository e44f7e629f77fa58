package template

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

// PostgresStore persists event templates in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed template store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const templateColumns = `id, profile_id, organization_id, title, description, kind, rrule, due_offset_days, due_time, rule_meta, active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, t *models.Template) error {
	meta, err := json.Marshal(t.RuleMeta)
	if err != nil {
		return fmt.Errorf("marshal rule metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO event_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(t.ID), uuid.UUID(t.ProfileID), uuid.UUID(t.OrganizationID),
		t.Title, t.Description, string(t.Kind), t.RRule, t.DueOffsetDays, t.DueTime,
		meta, t.Active, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, templateID id.TemplateID, orgID id.OrgID) (*models.Template, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM event_templates
		WHERE id = $1 AND organization_id = $2`,
		uuid.UUID(templateID), uuid.UUID(orgID),
	)
	return scanTemplate(row)
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID id.OrgID) ([]*models.Template, error) {
	return s.listByOrg(ctx, orgID, false)
}

func (s *PostgresStore) ListActiveByOrg(ctx context.Context, orgID id.OrgID) ([]*models.Template, error) {
	return s.listByOrg(ctx, orgID, true)
}

func (s *PostgresStore) listByOrg(ctx context.Context, orgID id.OrgID, activeOnly bool) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM event_templates WHERE organization_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, uuid.UUID(orgID))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByProfile(ctx context.Context, profileID id.ProfileID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_templates WHERE profile_id = $1`,
		uuid.UUID(profileID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return count, nil
}

// Execute locks the row (FOR UPDATE), validates, applies and writes back in
// one transaction.
func (s *PostgresStore) Execute(ctx context.Context, templateID id.TemplateID, orgID id.OrgID, validate func(*models.Template) error, apply func(*models.Template)) (*models.Template, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin template update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM event_templates
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE`,
		uuid.UUID(templateID), uuid.UUID(orgID),
	)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(t); err != nil {
			return nil, err
		}
	}
	apply(t)

	meta, err := json.Marshal(t.RuleMeta)
	if err != nil {
		return nil, fmt.Errorf("marshal rule metadata: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE event_templates
		SET title = $1, description = $2, kind = $3, rrule = $4, due_offset_days = $5,
		    due_time = $6, rule_meta = $7, active = $8, updated_at = $9
		WHERE id = $10`,
		t.Title, t.Description, string(t.Kind), t.RRule, t.DueOffsetDays,
		t.DueTime, meta, t.Active, t.UpdatedAt, uuid.UUID(t.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit template update: %w", err)
	}
	return t, nil
}

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var (
		t      models.Template
		tID    uuid.UUID
		pID    uuid.UUID
		oID    uuid.UUID
		kind   string
		meta   []byte
	)
	err := row.Scan(&tID, &pID, &oID, &t.Title, &t.Description, &kind, &t.RRule,
		&t.DueOffsetDays, &t.DueTime, &meta, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	t.ID = id.TemplateID(tID)
	t.ProfileID = id.ProfileID(pID)
	t.OrganizationID = id.OrgID(oID)
	t.Kind = models.TemplateKind(kind)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.RuleMeta); err != nil {
			return nil, fmt.Errorf("unmarshal rule metadata: %w", err)
		}
	}
	return &t, nil
}
