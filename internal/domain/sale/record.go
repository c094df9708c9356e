package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a recorded sale.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// ErrRecordNotFound is returned when a ledger lookup misses.
var ErrRecordNotFound = errors.New("sale record not found")

// RecordItem is a frozen snapshot of one sold line. It carries the category
// so reports can group revenue without consulting the (mutable) catalog.
type RecordItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// Record is a finalized sale as stored in the ledger. Items are immutable
// once written; only Status may change, and only completed→canceled.
type Record struct {
	ID          string
	Timestamp   time.Time
	DisplayDate string
	Total       decimal.Decimal
	Method      string
	Status      Status
	Items       []RecordItem
}

// Ledger is the append-mostly log of finalized sales.
type Ledger interface {
	Append(ctx context.Context, rec *Record) error
	// Cancel flips a completed record to canceled. One-way; canceling an
	// already-canceled record is a no-op.
	Cancel(ctx context.Context, id string) error
	// List returns records newest-first.
	List(ctx context.Context) ([]Record, error)
	// ListSince returns records with Timestamp >= since, newest-first.
	ListSince(ctx context.Context, since time.Time) ([]Record, error)
}

// FormatOrderID renders the sequential order counter as a display
// identifier, e.g. 7 → "#0007".
func FormatOrderID(n int) string {
	return fmt.Sprintf("#%04d", n)
}

// SnapshotItems freezes cart lines into record items.
func SnapshotItems(lines []Line) []RecordItem {
	items := make([]RecordItem, len(lines))
	for i, l := range lines {
		items[i] = RecordItem{
			Name:     l.Product.Name,
			Quantity: l.Quantity,
			Price:    l.Product.Price,
			Category: l.Product.Category,
		}
	}
	return items
}
