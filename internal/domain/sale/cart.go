package sale

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netefood/pos/internal/domain/product"
)

// Line is a single cart entry: a product snapshot taken at add time plus a
// quantity. The snapshot shields the line from later catalog edits.
type Line struct {
	ID       string
	Product  product.Product
	Quantity int
}

// Subtotal returns price × quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the in-progress, uncommitted line items for the sale being
// built. Lines keep insertion order; one line per distinct product id.
// Cart is not safe for concurrent use — the checkout service serializes
// access to it.
type Cart struct {
	lines []Line
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddItem adds one unit of the product. When a line for the product already
// exists its quantity is incremented; otherwise a new line is appended.
// Stock is not checked here — availability is only enforced at finalization.
func (c *Cart) AddItem(p product.Product) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{
		ID:       uuid.New().String(),
		Product:  p,
		Quantity: 1,
	})
}

// RemoveItem removes one unit of the product. A line at quantity 1 is
// dropped entirely; a missing line is a no-op.
func (c *Cart) RemoveItem(productID int64) {
	for i := range c.lines {
		if c.lines[i].Product.ID != productID {
			continue
		}
		if c.lines[i].Quantity > 1 {
			c.lines[i].Quantity--
			return
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
}

// Total returns the sum of line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Replace swaps the cart content with the given lines. Used when restoring a
// suspended sale.
func (c *Cart) Replace(lines []Line) {
	c.lines = make([]Line, len(lines))
	copy(c.lines, lines)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
