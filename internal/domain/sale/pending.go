package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultCustomerLabel is used when a sale is parked without naming the
// customer.
const DefaultCustomerLabel = "Cliente Balcão"

// ErrPendingNotFound is returned when a suspended sale lookup misses.
var ErrPendingNotFound = errors.New("pending sale not found")

// Pending is a sale parked mid-build so the operator can serve another
// customer. Items are the cart lines exactly as they were at park time.
type Pending struct {
	ID            string
	CustomerLabel string
	Items         []Line
	CreatedAt     time.Time
	Total         decimal.Decimal
}

// PendingStore holds suspended sales, newest-first.
type PendingStore interface {
	Save(ctx context.Context, p *Pending) error
	Get(ctx context.Context, id string) (*Pending, error)
	List(ctx context.Context) ([]Pending, error)
	Delete(ctx context.Context, id string) error
}
