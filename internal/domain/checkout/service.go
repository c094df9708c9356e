package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/netefood/pos/internal/domain/product"
	"github.com/netefood/pos/internal/domain/sale"
	"github.com/netefood/pos/internal/fiscal"
)

// Service owns the active checkout session: the cart, the payment selection,
// and the order counter. All session state lives behind one mutex; the only
// suspension point is the fiscal gateway call, during which the busy flag
// keeps a second confirm (or cancel) from racing the commit.
type Service struct {
	catalog product.Repository
	ledger  sale.Ledger
	pending sale.PendingStore
	emitter fiscal.Emitter
	lg      *zap.Logger

	mu         sync.Mutex
	cart       *sale.Cart
	payment    sale.Payment
	confirming bool
	busy       bool
	orderSeq   int
	attempt    attempt

	now func() time.Time
}

// attempt records the side effects a failed confirm already applied. The
// fiscal gateway was called and stock was decremented before the ledger
// append that failed; a retry must re-run only the append, never those.
type attempt struct {
	fiscalDone   bool
	fiscalResult fiscal.Result
	stockApplied bool
}

// NewService creates a checkout service with an empty cart and the order
// counter seeded at 1.
func NewService(
	catalog product.Repository,
	ledger sale.Ledger,
	pending sale.PendingStore,
	emitter fiscal.Emitter,
	lg *zap.Logger,
) *Service {
	return &Service{
		catalog:  catalog,
		ledger:   ledger,
		pending:  pending,
		emitter:  emitter,
		lg:       lg,
		cart:     sale.NewCart(),
		orderSeq: 1,
		now:      time.Now,
	}
}

// Status is the operator-facing view of the session.
type Status struct {
	State        State
	Lines        []sale.Line
	Total        decimal.Decimal
	Method       sale.Method
	Tendered     decimal.Decimal
	Change       decimal.Decimal
	Insufficient bool
	OrderID      string
}

// Result is a finalized (completed or canceled) sale. Fiscal is only set for
// completed sales.
type Result struct {
	Record sale.Record
	Fiscal fiscal.Result
	Change decimal.Decimal
}

// state derives the current machine state. Callers must hold s.mu.
func (s *Service) state() State {
	switch {
	case s.busy:
		return StateFinalizing
	case s.confirming:
		return StateConfirming
	case !s.cart.IsEmpty() && s.payment.Method != sale.MethodNone:
		return StatePaymentPending
	default:
		return StateBuilding
	}
}

// snapshot builds the transition-function view. Callers must hold s.mu.
func (s *Service) snapshot() Snapshot {
	return Snapshot{
		State:            s.state(),
		CartEmpty:        s.cart.IsEmpty(),
		MethodSelected:   s.payment.Method != sale.MethodNone,
		CashInsufficient: s.payment.Insufficient(s.cart.Total()),
		Busy:             s.busy,
	}
}

// status builds the operator view. Callers must hold s.mu.
func (s *Service) status() Status {
	total := s.cart.Total()
	return Status{
		State:        s.state(),
		Lines:        s.cart.Lines(),
		Total:        total,
		Method:       s.payment.Method,
		Tendered:     s.payment.Tendered,
		Change:       s.payment.Change(total),
		Insufficient: s.payment.Insufficient(total),
		OrderID:      sale.FormatOrderID(s.orderSeq),
	}
}

// Status returns the current session view.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// AddItem looks the product up in the catalog and adds one unit to the cart.
// Adding while the receipt preview is open implicitly reopens the cart.
func (s *Service) AddItem(ctx context.Context, productID int64) (Status, error) {
	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return Status{}, errors.Wrapf(err, "get product %d", productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.status(), ErrCheckoutBusy
	}
	s.cart.AddItem(*p)
	s.confirming = false
	s.attempt = attempt{}
	return s.status(), nil
}

// RemoveItem removes one unit of the product from the cart. Unknown products
// are a no-op, matching the cart engine contract.
func (s *Service) RemoveItem(productID int64) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.status(), ErrCheckoutBusy
	}
	s.cart.RemoveItem(productID)
	s.confirming = false
	s.attempt = attempt{}
	return s.status(), nil
}

// SelectPayment sets the payment method and, for cash, the tendered amount
// as typed by the operator.
func (s *Service) SelectPayment(method sale.Method, tenderedRaw string) (Status, error) {
	if !sale.ValidMethod(method) {
		return Status{}, ErrInvalidMethod
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.status(), ErrCheckoutBusy
	}
	s.payment.SelectMethod(method)
	if method == sale.MethodCash {
		s.payment.SetTendered(tenderedRaw)
	}
	// A method change invalidates a saved fiscal emission; the stock
	// decrement stands as long as the cart is unchanged.
	s.attempt.fiscalDone = false
	s.attempt.fiscalResult = fiscal.Result{}
	return s.status(), nil
}

// Finalize opens the receipt preview. Guards: non-empty cart, a selected
// method, and sufficient cash. A guard violation reports without any state
// change.
func (s *Service) Finalize() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _, err := Transition(s.snapshot(), EventFinalize)
	if err != nil {
		return s.status(), err
	}
	s.confirming = next == StateConfirming
	return s.status(), nil
}

// Reopen closes the receipt preview so the operator can keep editing.
func (s *Service) Reopen() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := Transition(s.snapshot(), EventReopen); err != nil {
		return s.status(), err
	}
	s.confirming = false
	s.attempt = attempt{}
	return s.status(), nil
}

// Confirm commits the sale: best-effort fiscal emission, stock decrement,
// ledger append, order counter increment, session reset. The fiscal call
// never blocks the local sale — authorized, rejected, and unreachable all
// fall through to the local commit. A concurrent confirm is rejected with
// ErrCheckoutBusy.
func (s *Service) Confirm(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	_, effects, err := Transition(s.snapshot(), EventConfirm)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.busy = true
	lines := s.cart.Lines()
	total := s.cart.Total()
	payment := s.payment
	att := s.attempt
	s.mu.Unlock()

	fiscalRes := att.fiscalResult
	for _, effect := range effects {
		if effect == EffectEmitFiscal && !att.fiscalDone {
			// The one suspension point. The busy flag is set, so the
			// session cannot be mutated while this call is outstanding.
			fiscalRes = s.emitter.Emit(ctx, buildFiscalRequest(lines, total, payment.Method))
			s.logFiscalOutcome(fiscalRes)
			att.fiscalDone = true
			att.fiscalResult = fiscalRes
		}
	}

	s.mu.Lock()
	defer func() {
		s.busy = false
		s.mu.Unlock()
	}()

	// Local commit, regardless of the fiscal outcome.
	if !att.stockApplied {
		for _, l := range lines {
			if err := s.catalog.DecrementStock(ctx, l.Product.ID, l.Quantity); err != nil {
				// Stock counts are advisory; a failed decrement must not void
				// a sale that already happened at the counter.
				s.lg.Error("decrement stock",
					zap.Int64("product_id", l.Product.ID),
					zap.Int("quantity", l.Quantity),
					zap.Error(err),
				)
			}
		}
		att.stockApplied = true
	}

	change := payment.Change(total)
	rec := sale.Record{
		ID:        sale.FormatOrderID(s.orderSeq),
		Timestamp: s.now(),
		Total:     total,
		Method:    methodString(payment.Method, change),
		Status:    sale.StatusCompleted,
		Items:     sale.SnapshotItems(lines),
	}
	rec.DisplayDate = rec.Timestamp.Format("02/01/2006 15:04:05")

	if err := s.ledger.Append(ctx, &rec); err != nil {
		// Keep the session in Confirming so the operator can retry. The
		// saved attempt makes the retry append-only: the fiscal emission
		// and the stock decrement already happened for this sale.
		s.attempt = att
		return nil, errors.Wrap(err, "append sale record")
	}

	s.attempt = attempt{}
	s.orderSeq++
	s.cart.Clear()
	s.payment.Reset()
	s.confirming = false

	return &Result{Record: rec, Fiscal: fiscalRes, Change: change}, nil
}

// Cancel abandons the sale before any fiscal attempt. The cancellation is
// still recorded in the ledger for audit, the order counter advances, and
// stock is left untouched.
func (s *Service) Cancel(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := Transition(s.snapshot(), EventCancel); err != nil {
		return nil, err
	}

	method := string(s.payment.Method)
	if method == "" {
		method = "CANCELED"
	}

	rec := sale.Record{
		ID:        sale.FormatOrderID(s.orderSeq),
		Timestamp: s.now(),
		Total:     s.cart.Total(),
		Method:    method,
		Status:    sale.StatusCanceled,
		Items:     sale.SnapshotItems(s.cart.Lines()),
	}
	rec.DisplayDate = rec.Timestamp.Format("02/01/2006 15:04:05")

	if err := s.ledger.Append(ctx, &rec); err != nil {
		return nil, errors.Wrap(err, "append cancellation record")
	}

	s.attempt = attempt{}
	s.orderSeq++
	s.cart.Clear()
	s.payment.Reset()
	s.confirming = false

	return &Result{Record: rec}, nil
}

// Park suspends the active sale under the given customer label and clears
// the session so the operator can serve the next customer.
func (s *Service) Park(ctx context.Context, customerLabel string) (*sale.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return nil, ErrCheckoutBusy
	}
	if s.cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if customerLabel == "" {
		customerLabel = sale.DefaultCustomerLabel
	}

	p := &sale.Pending{
		ID:            uuid.New().String(),
		CustomerLabel: customerLabel,
		Items:         s.cart.Lines(),
		CreatedAt:     s.now(),
		Total:         s.cart.Total(),
	}
	if err := s.pending.Save(ctx, p); err != nil {
		return nil, errors.Wrap(err, "save pending sale")
	}

	s.cart.Clear()
	s.payment.Reset()
	s.confirming = false
	s.attempt = attempt{}

	return p, nil
}

// Restore re-hydrates a suspended sale into the cart and removes it from the
// pending list. When the active cart is non-empty the caller must pass
// replace=true, acknowledging the in-progress cart is discarded.
func (s *Service) Restore(ctx context.Context, id string, replace bool) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return s.status(), ErrCheckoutBusy
	}
	if !s.cart.IsEmpty() && !replace {
		return s.status(), ErrCartInProgress
	}

	p, err := s.pending.Get(ctx, id)
	if err != nil {
		return s.status(), errors.Wrapf(err, "get pending sale %s", id)
	}
	if err := s.pending.Delete(ctx, id); err != nil {
		return s.status(), errors.Wrapf(err, "delete pending sale %s", id)
	}

	s.cart.Replace(p.Items)
	s.payment.Reset()
	s.confirming = false
	s.attempt = attempt{}

	return s.status(), nil
}

// Discard permanently removes a suspended sale.
func (s *Service) Discard(ctx context.Context, id string) error {
	if err := s.pending.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete pending sale %s", id)
	}
	return nil
}

// ListPending returns the suspended sales, newest-first.
func (s *Service) ListPending(ctx context.Context) ([]sale.Pending, error) {
	list, err := s.pending.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list pending sales")
	}
	return list, nil
}

func (s *Service) logFiscalOutcome(res fiscal.Result) {
	switch res.Outcome {
	case fiscal.OutcomeAuthorized:
		s.lg.Info("fiscal receipt authorized", zap.Int64("nfe_number", res.ReceiptNumber))
	case fiscal.OutcomeRejected:
		s.lg.Warn("fiscal emission rejected", zap.String("message", res.Message))
	default:
		s.lg.Warn("fiscal gateway unreachable, sale recorded locally only")
	}
}

func buildFiscalRequest(lines []sale.Line, total decimal.Decimal, method sale.Method) fiscal.Request {
	items := make([]fiscal.Item, len(lines))
	for i, l := range lines {
		items[i] = fiscal.Item{
			ID:         l.Product.ID,
			Name:       l.Product.Name,
			Quantity:   l.Quantity,
			Price:      l.Product.Price,
			FiscalCode: l.Product.FiscalCode,
		}
	}
	return fiscal.Request{
		Total:         total,
		Items:         items,
		PaymentMethod: string(method),
	}
}

// methodString renders the ledger method column. Cash embeds the computed
// change so the receipt and history show it without recomputation.
func methodString(m sale.Method, change decimal.Decimal) string {
	if m == sale.MethodCash {
		return fmt.Sprintf("CASH (Change: R$%s)", change.StringFixed(2))
	}
	return string(m)
}
