package revenue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	id "taxcal/pkg/domain"
)

// PostgresSource reads the billing system's invoices table. This service
// never writes to it.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed revenue source.
func NewPostgres(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) SumPaidInvoices(ctx context.Context, orgID id.OrgID, from, to time.Time) (decimal.Decimal, error) {
	// COALESCE keeps the no-invoices case a plain zero instead of NULL.
	var total string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)::text
		FROM invoices
		WHERE organization_id = $1
		  AND status = $2
		  AND paid_at >= $3
		  AND paid_at < $4`,
		uuid.UUID(orgID), string(StatusPaid), from, to,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum paid invoices: %w", err)
	}

	sum, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse invoice sum %q: %w", total, err)
	}
	return sum, nil
}
