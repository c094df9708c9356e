package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/netefood/pos/internal/report"
)

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	out := make([]saleView, len(records))
	for i, rec := range records {
		out[i] = toSaleView(rec)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	// Order ids look like "#0001"; the hash arrives percent-encoded.
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	if err := h.ledger.Cancel(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reportView struct {
	ID         string            `json:"id"`
	Date       string            `json:"date"`
	Timestamp  int64             `json:"timestamp"`
	Summary    reportSummaryView `json:"summary"`
	Categories []reportCatView   `json:"categories"`
}

type reportSummaryView struct {
	TotalSales  float64 `json:"totalSales"`
	TotalOrders int     `json:"totalOrders"`
	AvgTicket   float64 `json:"avgTicket"`
}

type reportCatView struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

func toReportView(rep report.Report) reportView {
	cats := make([]reportCatView, len(rep.Categories))
	for i, c := range rep.Categories {
		cats[i] = reportCatView{Name: c.Name, Quantity: c.Quantity, Total: c.Total.InexactFloat64()}
	}
	return reportView{
		ID:        rep.ID,
		Date:      rep.Date,
		Timestamp: rep.Timestamp.UnixMilli(),
		Summary: reportSummaryView{
			TotalSales:  rep.Summary.TotalSales.InexactFloat64(),
			TotalOrders: rep.Summary.TotalOrders,
			AvgTicket:   rep.Summary.AvgTicket.InexactFloat64(),
		},
		Categories: cats,
	}
}

func (h *Handler) todayReport(w http.ResponseWriter, r *http.Request) {
	summary, cats, err := h.reports.Today(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	catViews := make([]reportCatView, len(cats))
	for i, c := range cats {
		catViews[i] = reportCatView{Name: c.Name, Quantity: c.Quantity, Total: c.Total.InexactFloat64()}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"summary": reportSummaryView{
			TotalSales:  summary.TotalSales.InexactFloat64(),
			TotalOrders: summary.TotalOrders,
			AvgTicket:   summary.AvgTicket.InexactFloat64(),
		},
		"categories": catViews,
	})
}

func (h *Handler) closeReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.Close(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toReportView(*rep))
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	list, err := h.reports.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	out := make([]reportView, len(list))
	for i, rep := range list {
		out[i] = toReportView(rep)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteReport(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
