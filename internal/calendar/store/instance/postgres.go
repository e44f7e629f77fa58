package instance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxcal/internal/calendar/models"
	"taxcal/internal/calendar/store"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/sentinel"
)

// PostgresStore persists event instances in PostgreSQL. Uniqueness of
// (template_id, period_start, period_end) is enforced by the schema
// constraint, not by a check-then-create sequence.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed instance store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const instanceColumns = `id, template_id, organization_id, period_start, period_end, due_at, status, note, done_at, done_by, metadata, created_at, updated_at`

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, inst *models.Instance) error {
	metadata, err := json.Marshal(inst.Metadata)
	if err != nil {
		return fmt.Errorf("marshal instance metadata: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO event_instances (`+instanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT ON CONSTRAINT uq_event_instances_template_period DO NOTHING`,
		uuid.UUID(inst.ID), uuid.UUID(inst.TemplateID), uuid.UUID(inst.OrganizationID),
		inst.PeriodStart, inst.PeriodEnd, inst.DueAt, string(inst.Status), inst.Note,
		inst.DoneAt, nullableUser(inst.DoneBy), metadata, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID) (*models.Instance, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+instanceColumns+`
		FROM event_instances
		WHERE id = $1 AND organization_id = $2`,
		uuid.UUID(instanceID), uuid.UUID(orgID),
	)
	return scanInstance(row)
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID id.OrgID, from, to time.Time) ([]*models.Instance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM event_instances
		WHERE organization_id = $1`
	args := []any{uuid.UUID(orgID)}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND due_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND due_at < $%d", len(args))
	}
	query += " ORDER BY due_at"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var out []*models.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// MarkOverdueBefore is a single bulk conditional update; it is commutative
// and idempotent, so concurrent sweeps converge without coordination.
func (s *PostgresStore) MarkOverdueBefore(ctx context.Context, orgID id.OrgID, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE event_instances
		SET status = $1, updated_at = $2
		WHERE organization_id = $3
		  AND due_at < $2
		  AND status IN ($4, $5)`,
		string(models.StatusOverdue), before, uuid.UUID(orgID),
		string(models.StatusUpcoming), string(models.StatusInProgress),
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Execute locks the row (FOR UPDATE), runs validation against the current
// state, applies the mutation and writes it back in one transaction.
func (s *PostgresStore) Execute(ctx context.Context, instanceID id.InstanceID, orgID id.OrgID, validate func(*models.Instance) error, apply func(*models.Instance)) (*models.Instance, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin instance update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+instanceColumns+`
		FROM event_instances
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE`,
		uuid.UUID(instanceID), uuid.UUID(orgID),
	)
	inst, err := scanInstance(row)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(inst); err != nil {
			return nil, err
		}
	}
	apply(inst)

	metadata, err := json.Marshal(inst.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal instance metadata: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE event_instances
		SET status = $1, note = $2, done_at = $3, done_by = $4, metadata = $5, updated_at = $6
		WHERE id = $7`,
		string(inst.Status), inst.Note, inst.DoneAt, nullableUser(inst.DoneBy),
		metadata, inst.UpdatedAt, uuid.UUID(inst.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("update instance: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit instance update: %w", err)
	}
	return inst, nil
}

func (s *PostgresStore) CountByOrg(ctx context.Context, orgID id.OrgID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_instances WHERE organization_id = $1`,
		uuid.UUID(orgID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count instances: %w", err)
	}
	return count, nil
}

func scanInstance(row pgx.Row) (*models.Instance, error) {
	var (
		inst     models.Instance
		instID   uuid.UUID
		tmplID   uuid.UUID
		orgID    uuid.UUID
		status   string
		doneBy   *uuid.UUID
		metadata []byte
	)
	err := row.Scan(&instID, &tmplID, &orgID, &inst.PeriodStart, &inst.PeriodEnd,
		&inst.DueAt, &status, &inst.Note, &inst.DoneAt, &doneBy, &metadata,
		&inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan instance: %w", err)
	}
	inst.ID = id.InstanceID(instID)
	inst.TemplateID = id.TemplateID(tmplID)
	inst.OrganizationID = id.OrgID(orgID)
	inst.Status = models.InstanceStatus(status)
	if doneBy != nil {
		inst.DoneBy = id.UserID(*doneBy)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &inst.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal instance metadata: %w", err)
		}
	}
	return &inst, nil
}

func nullableUser(userID id.UserID) *uuid.UUID {
	if userID.IsNil() {
		return nil
	}
	u := uuid.UUID(userID)
	return &u
}
