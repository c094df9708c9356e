package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/netefood/pos/internal/domain/sale"
)

type pendingView struct {
	ID            string     `json:"id"`
	CustomerLabel string     `json:"customer"`
	CreatedAt     int64      `json:"createdAt"`
	Total         float64    `json:"total"`
	Items         []lineView `json:"items"`
}

func toPendingView(p sale.Pending) pendingView {
	items := make([]lineView, len(p.Items))
	for i, l := range p.Items {
		items[i] = lineView{
			LineID:    l.ID,
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price.InexactFloat64(),
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().InexactFloat64(),
		}
	}
	return pendingView{
		ID:            p.ID,
		CustomerLabel: p.CustomerLabel,
		CreatedAt:     p.CreatedAt.UnixMilli(),
		Total:         p.Total.InexactFloat64(),
		Items:         items,
	}
}

func (h *Handler) parkSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer string `json:"customer"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid park payload")
		return
	}
	p, err := h.checkout.Park(r.Context(), req.Customer)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPendingView(*p))
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.checkout.ListPending(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	out := make([]pendingView, len(list))
	for i, p := range list {
		out[i] = toPendingView(p)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) restorePending(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Replace bool `json:"replace"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid restore payload")
		return
	}
	st, err := h.checkout.Restore(r.Context(), chi.URLParam(r, "id"), req.Replace)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatusView(st))
}

func (h *Handler) discardPending(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
