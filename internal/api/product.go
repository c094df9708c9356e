package api

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/netefood/pos/internal/domain/product"
	"github.com/netefood/pos/internal/domain/sale"
)

type productView struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Category   string  `json:"category"`
	Stock      int     `json:"stock"`
	MinStock   int     `json:"minStock"`
	FiscalCode string  `json:"fiscalCode"`
	LowStock   bool    `json:"lowStock"`
}

func toProductView(p product.Product) productView {
	return productView{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.InexactFloat64(),
		Category:   p.Category,
		Stock:      p.Stock,
		MinStock:   p.MinStock,
		FiscalCode: p.FiscalCode,
		LowStock:   p.LowStock(),
	}
}

type productRequest struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Category   string `json:"category"`
	Stock      int    `json:"stock"`
	MinStock   int    `json:"minStock"`
	FiscalCode string `json:"fiscalCode"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewList(products))
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	products, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewList(products))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid product payload")
		return
	}
	p, err := req.toDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.ID == 0 {
		p.ID = nextProductID()
	}
	if err := h.catalog.Create(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProductView(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid product payload")
		return
	}
	p, err := req.toDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = id

	if err := h.catalog.Update(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductView(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "category name required")
		return
	}
	if err := h.catalog.AddCategory(r.Context(), req.Name); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) removeCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.catalog.RemoveCategory(r.Context(), name); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req productRequest) toDomain() (*product.Product, error) {
	price := sale.ParseAmount(req.Price)
	if !price.IsPositive() {
		return nil, errInvalidPrice
	}
	return &product.Product{
		ID:         req.ID,
		Name:       req.Name,
		Price:      price,
		Category:   req.Category,
		Stock:      req.Stock,
		MinStock:   req.MinStock,
		FiscalCode: req.FiscalCode,
	}, nil
}

// lastIssuedID floors nextProductID so same-millisecond creates stay distinct.
var lastIssuedID atomic.Int64

// nextProductID issues ids for create requests that omit one. Millisecond
// timestamps keep generated ids well clear of the small seeded catalog ids.
func nextProductID() int64 {
	for {
		id := time.Now().UnixMilli()
		last := lastIssuedID.Load()
		if id <= last {
			id = last + 1
		}
		if lastIssuedID.CompareAndSwap(last, id) {
			return id
		}
	}
}

var errInvalidPrice = errInvalid("price must be a positive amount")

type errInvalid string

func (e errInvalid) Error() string { return string(e) }

func viewList(products []product.Product) []productView {
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = toProductView(p)
	}
	return out
}
