package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/netefood/pos/internal/domain/checkout"
	"github.com/netefood/pos/internal/domain/sale"
	"github.com/netefood/pos/internal/fiscal"
)

type lineView struct {
	LineID    string  `json:"lineId"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type statusView struct {
	State        string     `json:"state"`
	Lines        []lineView `json:"lines"`
	Total        float64    `json:"total"`
	Method       string     `json:"method"`
	Tendered     float64    `json:"tendered"`
	Change       float64    `json:"change"`
	Insufficient bool       `json:"insufficient"`
	OrderID      string     `json:"orderId"`
}

type saleView struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"`
	Timestamp int64          `json:"timestamp"`
	Total     float64        `json:"total"`
	Method    string         `json:"method"`
	Status    string         `json:"status"`
	Items     []saleItemView `json:"items"`
}

type saleItemView struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type fiscalView struct {
	Outcome       string `json:"outcome"`
	ReceiptNumber int64  `json:"nfeNumber,omitempty"`
	Message       string `json:"message,omitempty"`
}

type resultView struct {
	Sale   saleView    `json:"sale"`
	Change float64     `json:"change"`
	Fiscal *fiscalView `json:"fiscal,omitempty"`
}

func toStatusView(st checkout.Status) statusView {
	lines := make([]lineView, len(st.Lines))
	for i, l := range st.Lines {
		lines[i] = lineView{
			LineID:    l.ID,
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price.InexactFloat64(),
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().InexactFloat64(),
		}
	}
	return statusView{
		State:        string(st.State),
		Lines:        lines,
		Total:        st.Total.InexactFloat64(),
		Method:       string(st.Method),
		Tendered:     st.Tendered.InexactFloat64(),
		Change:       st.Change.InexactFloat64(),
		Insufficient: st.Insufficient,
		OrderID:      st.OrderID,
	}
}

func toSaleView(rec sale.Record) saleView {
	items := make([]saleItemView, len(rec.Items))
	for i, it := range rec.Items {
		items[i] = saleItemView{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price.InexactFloat64(),
			Category: it.Category,
		}
	}
	return saleView{
		ID:        rec.ID,
		Date:      rec.DisplayDate,
		Timestamp: rec.Timestamp.UnixMilli(),
		Total:     rec.Total.InexactFloat64(),
		Method:    rec.Method,
		Status:    string(rec.Status),
		Items:     items,
	}
}

func toResultView(res *checkout.Result, withFiscal bool) resultView {
	out := resultView{
		Sale:   toSaleView(res.Record),
		Change: res.Change.InexactFloat64(),
	}
	if withFiscal {
		fv := fiscalView{
			Outcome: string(res.Fiscal.Outcome),
			Message: res.Fiscal.Message,
		}
		if res.Fiscal.Outcome == fiscal.OutcomeAuthorized {
			fv.ReceiptNumber = res.Fiscal.ReceiptNumber
		}
		out.Fiscal = &fv
	}
	return out
}

func (h *Handler) cartStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toStatusView(h.checkout.Status()))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid cart payload")
		return
	}
	st, err := h.checkout.AddItem(r.Context(), req.ProductID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatusView(st))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	st, err := h.checkout.RemoveItem(id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatusView(st))
}

func (h *Handler) selectPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method   string `json:"method"`
		Tendered string `json:"tendered"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payment payload")
		return
	}
	st, err := h.checkout.SelectPayment(sale.Method(req.Method), req.Tendered)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatusView(st))
}

func (h *Handler) finalizeCheckout(w http.ResponseWriter, r *http.Request) {
	st, err := h.checkout.Finalize()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatusView(st))
}

func (h *Handler) reopenCheckout(w http.ResponseWriter, r *http.Request) {
	st, err := h.checkout.Reopen()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatusView(st))
}

func (h *Handler) confirmCheckout(w http.ResponseWriter, r *http.Request) {
	res, err := h.checkout.Confirm(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toResultView(res, true))
}

func (h *Handler) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	res, err := h.checkout.Cancel(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toResultView(res, false))
}
