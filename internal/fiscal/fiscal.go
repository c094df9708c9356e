// Package fiscal talks to the fiscal-receipt emission service. Emission is
// advisory: every outcome, including an unreachable gateway, lets the local
// sale complete.
package fiscal

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is one sale line sent to the gateway.
type Item struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	FiscalCode string          `json:"fiscalCode"`
}

// Request is the emission payload.
type Request struct {
	Total         decimal.Decimal `json:"total"`
	Items         []Item          `json:"items"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Outcome classifies the gateway interaction.
type Outcome string

const (
	// OutcomeAuthorized means the gateway emitted a receipt.
	OutcomeAuthorized Outcome = "authorized"
	// OutcomeRejected means the gateway answered but refused emission
	// (bad certificate, wrong passphrase, expired, ...).
	OutcomeRejected Outcome = "rejected"
	// OutcomeUnreachable means transport failure, timeout, or a response
	// that could not be understood.
	OutcomeUnreachable Outcome = "unreachable"
)

// Result is the classified gateway answer shown to the operator.
type Result struct {
	Outcome       Outcome
	ReceiptNumber int64
	Message       string
}

// Emitter attempts fiscal-receipt emission. Implementations never return an
// error for gateway-side failures — those are folded into the Result — only
// for programmer errors such as an unmarshalable request.
type Emitter interface {
	Emit(ctx context.Context, req Request) Result
}
