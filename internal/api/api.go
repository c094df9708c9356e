// Package api exposes the POS operations over HTTP. Handlers decode the
// request, delegate to the domain services, and map domain errors to
// {code, message} error bodies.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/netefood/pos/internal/domain/checkout"
	"github.com/netefood/pos/internal/domain/product"
	"github.com/netefood/pos/internal/domain/sale"
	"github.com/netefood/pos/internal/report"
)

// Handler carries the domain dependencies for all routes.
type Handler struct {
	catalog  product.Repository
	checkout *checkout.Service
	ledger   sale.Ledger
	reports  *report.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalog product.Repository,
	co *checkout.Service,
	ledger sale.Ledger,
	reports *report.Service,
) *Handler {
	return &Handler{
		catalog:  catalog,
		checkout: co,
		ledger:   ledger,
		reports:  reports,
	}
}

// Routes mounts every POS route on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/search", h.searchProducts)
		r.Post("/", h.createProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.addCategory)
		r.Delete("/{name}", h.removeCategory)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.cartStatus)
		r.Post("/items", h.addCartItem)
		r.Delete("/items/{productID}", h.removeCartItem)
		r.Put("/payment", h.selectPayment)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/finalize", h.finalizeCheckout)
		r.Post("/reopen", h.reopenCheckout)
		r.Post("/confirm", h.confirmCheckout)
		r.Post("/cancel", h.cancelCheckout)
	})

	r.Route("/pending", func(r chi.Router) {
		r.Get("/", h.listPending)
		r.Post("/", h.parkSale)
		r.Post("/{id}/restore", h.restorePending)
		r.Delete("/{id}", h.discardPending)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/{id}/cancel", h.cancelSale)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/today", h.todayReport)
		r.Post("/close", h.closeReport)
		r.Get("/", h.listReports)
		r.Delete("/{id}", h.deleteReport)
	})

	return r
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Code: status, Message: msg})
}

// respondDomainError maps domain errors to HTTP statuses. Unknown errors log
// and answer 500 without leaking internals.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, sale.ErrRecordNotFound),
		errors.Is(err, sale.ErrPendingNotFound),
		errors.Is(err, report.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, checkout.ErrCheckoutBusy):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoPaymentMethod),
		errors.Is(err, checkout.ErrInsufficientCash),
		errors.Is(err, checkout.ErrInvalidMethod),
		errors.Is(err, checkout.ErrNotConfirming),
		errors.Is(err, checkout.ErrCartInProgress),
		errors.Is(err, product.ErrCategoryInUse),
		errors.Is(err, report.ErrNoSales):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
