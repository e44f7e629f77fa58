package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "taxcal/pkg/domain"
)

// HighWaterStore persists how far ahead each organization's calendar has been
// materialized. The mark only advances after a successful run, so a crashed
// run is simply redone; generation idempotence makes the replay harmless.
type HighWaterStore interface {
	Get(ctx context.Context, orgID id.OrgID) (time.Time, error)
	Set(ctx context.Context, orgID id.OrgID, generatedThrough time.Time) error
}

// InMemoryHighWater keeps marks in process memory.
type InMemoryHighWater struct {
	mu    sync.RWMutex
	marks map[id.OrgID]time.Time
}

func NewInMemoryHighWater() *InMemoryHighWater {
	return &InMemoryHighWater{marks: make(map[id.OrgID]time.Time)}
}

// Get returns the zero time for an organization with no mark yet.
func (s *InMemoryHighWater) Get(_ context.Context, orgID id.OrgID) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marks[orgID], nil
}

func (s *InMemoryHighWater) Set(_ context.Context, orgID id.OrgID, generatedThrough time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[orgID] = generatedThrough
	return nil
}

// PostgresHighWater persists marks in the generation_marks table.
type PostgresHighWater struct {
	pool *pgxpool.Pool
}

func NewPostgresHighWater(pool *pgxpool.Pool) *PostgresHighWater {
	return &PostgresHighWater{pool: pool}
}

func (s *PostgresHighWater) Get(ctx context.Context, orgID id.OrgID) (time.Time, error) {
	var mark time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT generated_through FROM generation_marks
		WHERE organization_id = $1`,
		uuid.UUID(orgID),
	).Scan(&mark)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read generation mark: %w", err)
	}
	return mark, nil
}

func (s *PostgresHighWater) Set(ctx context.Context, orgID id.OrgID, generatedThrough time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO generation_marks (organization_id, generated_through, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (organization_id)
		DO UPDATE SET generated_through = EXCLUDED.generated_through, updated_at = now()`,
		uuid.UUID(orgID), generatedThrough,
	)
	if err != nil {
		return fmt.Errorf("write generation mark: %w", err)
	}
	return nil
}
