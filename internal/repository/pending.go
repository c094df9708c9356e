package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/netefood/pos/internal/domain/sale"
)

const (
	insertPendingSQL = `INSERT INTO pending_sales (id, customer_label, items, total, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	getPendingSQL = `SELECT id, customer_label, items, total, created_at
		FROM pending_sales WHERE id = $1`

	listPendingSQL = `SELECT id, customer_label, items, total, created_at
		FROM pending_sales ORDER BY created_at DESC`

	deletePendingSQL = `DELETE FROM pending_sales WHERE id = $1`
)

var _ sale.PendingStore = (*PendingRepository)(nil)

// PendingRepository implements sale.PendingStore backed by PostgreSQL.
// Cart lines are stored as a JSONB snapshot.
type PendingRepository struct {
	pool *pgxpool.Pool
}

// NewPendingRepository returns a PendingRepository that uses the given pool.
func NewPendingRepository(pool *pgxpool.Pool) *PendingRepository {
	return &PendingRepository{pool: pool}
}

// Save persists a suspended sale.
func (r *PendingRepository) Save(ctx context.Context, p *sale.Pending) error {
	itemsJSON, err := json.Marshal(pendingLines(p.Items))
	if err != nil {
		return fmt.Errorf("marshaling pending items: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertPendingSQL,
		p.ID, p.CustomerLabel, itemsJSON, p.Total, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving pending sale %q: %w", p.ID, err)
	}
	return nil
}

// Get returns a suspended sale by id.
func (r *PendingRepository) Get(ctx context.Context, id string) (*sale.Pending, error) {
	rows, err := r.pool.Query(ctx, getPendingSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting pending sale %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrPendingNotFound
		}
		return nil, fmt.Errorf("getting pending sale %q: %w", id, err)
	}
	return &p, nil
}

// List returns suspended sales, newest-first.
func (r *PendingRepository) List(ctx context.Context) ([]sale.Pending, error) {
	rows, err := r.pool.Query(ctx, listPendingSQL)
	if err != nil {
		return nil, fmt.Errorf("listing pending sales: %w", err)
	}
	return pgx.CollectRows(rows, scanPending)
}

// Delete removes a suspended sale permanently.
func (r *PendingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deletePendingSQL, id)
	if err != nil {
		return fmt.Errorf("deleting pending sale %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrPendingNotFound
	}
	return nil
}

// pendingLine is the JSONB shape of a suspended cart line.
type pendingLine struct {
	ID       string         `json:"id"`
	Quantity int            `json:"quantity"`
	Product  pendingProduct `json:"product"`
}

type pendingProduct struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"minStock"`
	FiscalCode string          `json:"fiscalCode"`
}

func pendingLines(lines []sale.Line) []pendingLine {
	out := make([]pendingLine, len(lines))
	for i, l := range lines {
		out[i] = pendingLine{
			ID:       l.ID,
			Quantity: l.Quantity,
			Product: pendingProduct{
				ID:         l.Product.ID,
				Name:       l.Product.Name,
				Price:      l.Product.Price,
				Category:   l.Product.Category,
				Stock:      l.Product.Stock,
				MinStock:   l.Product.MinStock,
				FiscalCode: l.Product.FiscalCode,
			},
		}
	}
	return out
}

func scanPending(row pgx.CollectableRow) (sale.Pending, error) {
	var (
		p     sale.Pending
		total decimal.Decimal
		items []byte
	)
	if err := row.Scan(&p.ID, &p.CustomerLabel, &items, &total, &p.CreatedAt); err != nil {
		return p, err
	}
	p.Total = total

	var stored []pendingLine
	if err := json.Unmarshal(items, &stored); err != nil {
		return p, fmt.Errorf("unmarshaling pending items: %w", err)
	}
	p.Items = make([]sale.Line, len(stored))
	for i, l := range stored {
		p.Items[i] = sale.Line{
			ID:       l.ID,
			Quantity: l.Quantity,
		}
		p.Items[i].Product.ID = l.Product.ID
		p.Items[i].Product.Name = l.Product.Name
		p.Items[i].Product.Price = l.Product.Price
		p.Items[i].Product.Category = l.Product.Category
		p.Items[i].Product.Stock = l.Product.Stock
		p.Items[i].Product.MinStock = l.Product.MinStock
		p.Items[i].Product.FiscalCode = l.Product.FiscalCode
	}
	return p, nil
}
