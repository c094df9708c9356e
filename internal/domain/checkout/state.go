// Package checkout drives the sale transaction lifecycle: cart accumulation,
// payment selection, best-effort fiscal emission, stock decrement, and ledger
// persistence.
package checkout

import "github.com/go-faster/errors"

// State is the checkout session phase. Building and PaymentPending are
// derived from cart/payment content; Confirming and Finalizing are explicit.
type State string

const (
	// StateBuilding: cart being assembled, no payment method chosen yet.
	StateBuilding State = "building"
	// StatePaymentPending: cart non-empty and a method chosen.
	StatePaymentPending State = "payment_pending"
	// StateConfirming: receipt preview open, nothing committed yet.
	StateConfirming State = "confirming"
	// StateFinalizing: fiscal attempt plus local commit in progress.
	StateFinalizing State = "finalizing"
)

// Event is an operator action fed to the transition function.
type Event string

const (
	// EventFinalize opens the receipt preview.
	EventFinalize Event = "finalize"
	// EventReopen closes the preview to keep editing the cart.
	EventReopen Event = "reopen"
	// EventConfirm commits the sale.
	EventConfirm Event = "confirm"
	// EventCancel abandons the sale, recording the cancellation.
	EventCancel Event = "cancel"
	// EventFinalized marks the commit as done.
	EventFinalized Event = "finalized"
)

// Effect is a side effect the caller must execute after a transition.
// The transition function itself is pure.
type Effect string

const (
	// EffectEmitFiscal: call the fiscal gateway (best-effort).
	EffectEmitFiscal Effect = "emit_fiscal"
	// EffectCommitSale: decrement stock, append the completed record,
	// advance the order counter, clear cart and payment.
	EffectCommitSale Effect = "commit_sale"
	// EffectRecordCancellation: append a canceled record, advance the order
	// counter, clear cart and payment. Stock is untouched.
	EffectRecordCancellation Effect = "record_cancellation"
)

// Guard violations. These never mutate state; the operator corrects the
// input and retries.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNoPaymentMethod  = errors.New("no payment method selected")
	ErrInsufficientCash = errors.New("tendered amount is less than the total")
	ErrCheckoutBusy     = errors.New("checkout already in progress")
	ErrNotConfirming    = errors.New("no sale awaiting confirmation")
	ErrInvalidMethod    = errors.New("unknown payment method")
	ErrCartInProgress   = errors.New("a sale is already in progress")
)

// Snapshot is the minimal session view the transition function needs.
type Snapshot struct {
	State            State
	CartEmpty        bool
	MethodSelected   bool
	CashInsufficient bool
	Busy             bool
}

// Transition applies ev to the snapshot and returns the next state plus the
// effects the caller must run. On a guard violation the returned state equals
// the current one and the error names the violated guard.
func Transition(s Snapshot, ev Event) (State, []Effect, error) {
	switch ev {
	case EventFinalize:
		if s.State == StateFinalizing {
			return s.State, nil, ErrCheckoutBusy
		}
		if s.CartEmpty {
			return s.State, nil, ErrEmptyCart
		}
		if !s.MethodSelected {
			return s.State, nil, ErrNoPaymentMethod
		}
		if s.CashInsufficient {
			return s.State, nil, ErrInsufficientCash
		}
		return StateConfirming, nil, nil

	case EventReopen:
		if s.State != StateConfirming {
			return s.State, nil, ErrNotConfirming
		}
		if s.MethodSelected && !s.CartEmpty {
			return StatePaymentPending, nil, nil
		}
		return StateBuilding, nil, nil

	case EventConfirm:
		if s.Busy || s.State == StateFinalizing {
			return s.State, nil, ErrCheckoutBusy
		}
		if s.State != StateConfirming {
			return s.State, nil, ErrNotConfirming
		}
		return StateFinalizing, []Effect{EffectEmitFiscal, EffectCommitSale}, nil

	case EventCancel:
		if s.Busy || s.State == StateFinalizing {
			return s.State, nil, ErrCheckoutBusy
		}
		if s.CartEmpty {
			return s.State, nil, ErrEmptyCart
		}
		return StateBuilding, []Effect{EffectRecordCancellation}, nil

	case EventFinalized:
		if s.State != StateFinalizing {
			return s.State, nil, ErrNotConfirming
		}
		return StateBuilding, nil, nil
	}

	return s.State, nil, errors.Errorf("unknown event: %q", ev)
}
