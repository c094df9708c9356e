package sale

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Method identifies how the customer pays.
type Method string

// Supported payment methods. The zero value means no method selected yet.
const (
	MethodNone   Method = ""
	MethodCash   Method = "CASH"
	MethodPix    Method = "PIX"
	MethodCredit Method = "CREDIT"
	MethodDebit  Method = "DEBIT"
)

// ValidMethod reports whether m is one of the supported payment methods.
func ValidMethod(m Method) bool {
	switch m {
	case MethodCash, MethodPix, MethodCredit, MethodDebit:
		return true
	}
	return false
}

// Payment tracks the operator's payment selection for the active sale.
// Tendered is only meaningful for cash.
type Payment struct {
	Method   Method
	Tendered decimal.Decimal
}

// SelectMethod sets the payment method. Switching away from cash clears the
// tendered amount so a stale change calculation cannot leak into the new
// method.
func (p *Payment) SelectMethod(m Method) {
	if m != MethodCash {
		p.Tendered = decimal.Zero
	}
	p.Method = m
}

// SetTendered parses a free-text cash amount and stores it. Both comma and
// dot decimal separators are accepted; empty or unparseable input counts
// as zero.
func (p *Payment) SetTendered(raw string) {
	p.Tendered = ParseAmount(raw)
}

// Change returns how much cash to hand back, floored at zero.
func (p *Payment) Change(total decimal.Decimal) decimal.Decimal {
	change := p.Tendered.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// Insufficient reports whether the method is cash and the tendered amount
// does not cover the total.
func (p *Payment) Insufficient(total decimal.Decimal) bool {
	return p.Method == MethodCash && p.Tendered.LessThan(total)
}

// Ready reports whether checkout may proceed: a method is selected and, for
// cash, the tendered amount covers the total.
func (p *Payment) Ready(total decimal.Decimal) bool {
	return p.Method != MethodNone && !p.Insufficient(total)
}

// Reset clears the selection back to its initial state.
func (p *Payment) Reset() {
	p.Method = MethodNone
	p.Tendered = decimal.Zero
}

// ParseAmount parses a currency amount typed by the operator. The comma
// decimal separator is normalized to a dot; anything that still fails to
// parse yields zero.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
