package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrCategoryInUse is returned when removing a category that still has
// products assigned to it.
var ErrCategoryInUse = errors.New("category has products assigned")

// Product represents a catalog item available for sale.
type Product struct {
	ID         int64
	Name       string
	Price      decimal.Decimal
	Category   string
	Stock      int
	MinStock   int
	FiscalCode string
}

// LowStock reports whether the product is at or below its minimum stock level.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

// Repository defines catalog operations. DecrementStock applies no floor:
// stock is allowed to go negative so an oversold item never blocks an
// in-person sale (counts are reconciled later).
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, id int64, quantity int) error

	ListCategories(ctx context.Context) ([]string, error)
	AddCategory(ctx context.Context, name string) error
	RemoveCategory(ctx context.Context, name string) error
}
