// Package store holds schema management and shared postgres helpers for the
// calendar store implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for all calendar tables. The unique index on
// (template_id, period_start, period_end) is the idempotence contract for
// materialization: the materializer relies on it, not on a prior existence
// read.
const Schema = `
CREATE TABLE IF NOT EXISTS compliance_profiles (
    id              UUID PRIMARY KEY,
    organization_id UUID NOT NULL UNIQUE,
    jurisdiction    TEXT NOT NULL,
    entity_type     TEXT NOT NULL DEFAULT '',
    settings        JSONB NOT NULL DEFAULT '{}',
    timezone        TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS event_templates (
    id              UUID PRIMARY KEY,
    profile_id      UUID NOT NULL REFERENCES compliance_profiles(id),
    organization_id UUID NOT NULL,
    title           TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    kind            TEXT NOT NULL,
    rrule           TEXT NOT NULL,
    due_offset_days INT  NOT NULL DEFAULT 0,
    due_time        TEXT NOT NULL DEFAULT '',
    rule_meta       JSONB NOT NULL DEFAULT '{}',
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_templates_org ON event_templates (organization_id);

CREATE TABLE IF NOT EXISTS event_instances (
    id              UUID PRIMARY KEY,
    template_id     UUID NOT NULL REFERENCES event_templates(id),
    organization_id UUID NOT NULL,
    period_start    TIMESTAMPTZ NOT NULL,
    period_end      TIMESTAMPTZ NOT NULL,
    due_at          TIMESTAMPTZ NOT NULL,
    status          TEXT NOT NULL,
    note            TEXT NOT NULL DEFAULT '',
    done_at         TIMESTAMPTZ,
    done_by         UUID,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL,
    CONSTRAINT uq_event_instances_template_period UNIQUE (template_id, period_start, period_end)
);
CREATE INDEX IF NOT EXISTS idx_event_instances_org_due ON event_instances (organization_id, due_at);

CREATE TABLE IF NOT EXISTS event_attachments (
    id              UUID PRIMARY KEY,
    instance_id     UUID NOT NULL REFERENCES event_instances(id),
    organization_id UUID NOT NULL,
    document_id     UUID NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    created_by      UUID
);
CREATE INDEX IF NOT EXISTS idx_event_attachments_instance ON event_attachments (instance_id);

CREATE TABLE IF NOT EXISTS generation_marks (
    organization_id UUID PRIMARY KEY,
    generated_through TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);
`

// Migrate applies the schema. Idempotent; safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply calendar schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres unique constraint hit.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
