package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/netefood/pos/internal/domain/sale"
)

const (
	insertSaleSQL = `INSERT INTO sales (id, ts, display_date, total, method, status, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	// Cancellation is one-way: only completed records flip. Display ids
	// restart from #0001 on every boot, so the same id can name several
	// rows; the subquery pins the newest one via the insert sequence.
	cancelSaleSQL = `UPDATE sales SET status = $2
		WHERE seq = (
			SELECT seq FROM sales
			WHERE id = $1 AND status = $3
			ORDER BY seq DESC LIMIT 1
		)`

	listSalesSQL = `SELECT id, ts, display_date, total, method, status, items
		FROM sales ORDER BY ts DESC, seq DESC`

	listSalesSinceSQL = `SELECT id, ts, display_date, total, method, status, items
		FROM sales WHERE ts >= $1 ORDER BY ts DESC, seq DESC`
)

var _ sale.Ledger = (*LedgerRepository)(nil)

// LedgerRepository implements sale.Ledger backed by PostgreSQL. Item
// snapshots are serialized to a JSONB column, frozen at write time.
// A record whose snapshot no longer unmarshals is skipped with a warning
// rather than poisoning the whole listing.
type LedgerRepository struct {
	pool *pgxpool.Pool
	lg   *zap.Logger
}

// NewLedgerRepository returns a LedgerRepository that uses the given pool.
func NewLedgerRepository(pool *pgxpool.Pool, lg *zap.Logger) *LedgerRepository {
	return &LedgerRepository{pool: pool, lg: lg}
}

// Append persists a finalized sale record.
func (r *LedgerRepository) Append(ctx context.Context, rec *sale.Record) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshaling sale items: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertSaleSQL,
		rec.ID, rec.Timestamp, rec.DisplayDate, rec.Total, rec.Method, rec.Status, itemsJSON,
	)
	if err != nil {
		return fmt.Errorf("appending sale %q: %w", rec.ID, err)
	}
	return nil
}

// Cancel flips the newest completed record bearing the id to canceled.
// Canceling a record that is already canceled (or unknown) reports
// ErrRecordNotFound.
func (r *LedgerRepository) Cancel(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, cancelSaleSQL, id, sale.StatusCanceled, sale.StatusCompleted)
	if err != nil {
		return fmt.Errorf("canceling sale %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrRecordNotFound
	}
	return nil
}

// List returns all sale records, newest-first.
func (r *LedgerRepository) List(ctx context.Context) ([]sale.Record, error) {
	rows, err := r.pool.Query(ctx, listSalesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return r.collectSales(rows)
}

// ListSince returns sale records with timestamps at or after since,
// newest-first.
func (r *LedgerRepository) ListSince(ctx context.Context, since time.Time) ([]sale.Record, error) {
	rows, err := r.pool.Query(ctx, listSalesSinceSQL, since)
	if err != nil {
		return nil, fmt.Errorf("listing sales since %s: %w", since, err)
	}
	return r.collectSales(rows)
}

func (r *LedgerRepository) collectSales(rows pgx.Rows) ([]sale.Record, error) {
	defer rows.Close()

	var out []sale.Record
	for rows.Next() {
		var (
			rec   sale.Record
			total decimal.Decimal
			items []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.DisplayDate, &total, &rec.Method, &rec.Status, &items); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		rec.Total = total
		if err := json.Unmarshal(items, &rec.Items); err != nil {
			r.lg.Warn("skipping sale with corrupt item snapshot",
				zap.String("id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
