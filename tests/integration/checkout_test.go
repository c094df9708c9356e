//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"testing"
)

var orderIDPattern = regexp.MustCompile(`^#\d{4,}$`)

// productID looks up a seeded product id by name.
func productID(t *testing.T, name string) int64 {
	t.Helper()
	resp := doGet(t, "/api/products/")
	defer resp.Body.Close()
	for _, p := range decodeJSON[[]productResponse](t, resp) {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("seeded product %q not found", name)
	return 0
}

func addToCart(t *testing.T, id int64) statusResponse {
	t.Helper()
	resp := doPost(t, "/api/cart/items", map[string]int64{"productId": id})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
	return decodeJSON[statusResponse](t, resp)
}

func selectPayment(t *testing.T, method, tendered string) statusResponse {
	t.Helper()
	resp := doPut(t, "/api/cart/payment", map[string]string{
		"method": method, "tendered": tendered,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select payment: expected 200, got %d", resp.StatusCode)
	}
	return decodeJSON[statusResponse](t, resp)
}

// clearCart cancels whatever sale is in progress so tests stay independent.
func clearCart(t *testing.T) {
	t.Helper()
	resp := doGet(t, "/api/cart/")
	st := decodeJSON[statusResponse](t, resp)
	resp.Body.Close()
	if len(st.Lines) == 0 {
		return
	}
	resp = doPost(t, "/api/checkout/cancel", nil)
	resp.Body.Close()
}

func TestCheckout_FullCashSale(t *testing.T) {
	clearCart(t)
	coxinha := productID(t, "Coxinha de Frango")
	suco := productID(t, "Suco Natural 500ml")

	addToCart(t, coxinha)
	addToCart(t, coxinha)
	st := addToCart(t, suco)
	if st.Total != 20.0 {
		t.Fatalf("total: got %v, want 20.0", st.Total)
	}

	st = selectPayment(t, "CASH", "28,00")
	if st.Change != 8.0 {
		t.Fatalf("change: got %v, want 8.0", st.Change)
	}

	resp := doPost(t, "/api/checkout/finalize", nil)
	st = decodeJSON[statusResponse](t, resp)
	resp.Body.Close()
	if st.State != "confirming" {
		t.Fatalf("state: got %q, want confirming", st.State)
	}

	resp = doPost(t, "/api/checkout/confirm", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d", resp.StatusCode)
	}
	res := decodeJSON[resultResponse](t, resp)

	if !orderIDPattern.MatchString(res.Sale.ID) {
		t.Errorf("order id %q does not match #NNNN", res.Sale.ID)
	}
	if res.Sale.Method != "CASH (Change: R$8.00)" {
		t.Errorf("method: got %q", res.Sale.Method)
	}
	if res.Sale.Status != "completed" {
		t.Errorf("status: got %q", res.Sale.Status)
	}
	if res.Fiscal == nil {
		t.Fatal("fiscal result missing")
	}
	// The compose fiscal service has a decryptable test certificate, so
	// emission is authorized with an NFC-e number in range.
	if res.Fiscal.Outcome != "authorized" {
		t.Fatalf("fiscal outcome: got %q (%s)", res.Fiscal.Outcome, res.Fiscal.Message)
	}
	if res.Fiscal.ReceiptNumber < 1000 || res.Fiscal.ReceiptNumber >= 6000 {
		t.Errorf("nfe number out of range: %d", res.Fiscal.ReceiptNumber)
	}

	// sale appears in history, newest first
	resp2 := doGet(t, "/api/sales/")
	sales := decodeJSON[[]saleResponse](t, resp2)
	resp2.Body.Close()
	if len(sales) == 0 {
		t.Fatal("sales history empty")
	}
	if sales[0].ID != res.Sale.ID {
		t.Errorf("newest sale: got %q, want %q", sales[0].ID, res.Sale.ID)
	}
}

func TestCheckout_Guards(t *testing.T) {
	clearCart(t)

	resp := doPost(t, "/api/checkout/finalize", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("finalize empty cart: expected 422, got %d", resp.StatusCode)
	}

	coxinha := productID(t, "Coxinha de Frango")
	addToCart(t, coxinha)

	resp = doPost(t, "/api/checkout/finalize", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("finalize without method: expected 422, got %d", resp.StatusCode)
	}

	st := selectPayment(t, "CASH", "2,00")
	if !st.Insufficient {
		t.Fatal("expected insufficient cash flag")
	}
	resp = doPost(t, "/api/checkout/finalize", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("finalize with short cash: expected 422, got %d", resp.StatusCode)
	}

	clearCart(t)
}

func TestCheckout_CancelSale(t *testing.T) {
	clearCart(t)
	coxinha := productID(t, "Coxinha de Frango")

	before := func() int {
		resp := doGet(t, "/api/products/")
		defer resp.Body.Close()
		for _, p := range decodeJSON[[]productResponse](t, resp) {
			if p.ID == coxinha {
				return p.Stock
			}
		}
		return 0
	}()

	addToCart(t, coxinha)
	resp := doPost(t, "/api/checkout/cancel", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}
	res := decodeJSON[resultResponse](t, resp)
	if res.Sale.Status != "canceled" {
		t.Errorf("status: got %q", res.Sale.Status)
	}
	if res.Sale.Method != "CANCELED" {
		t.Errorf("method: got %q", res.Sale.Method)
	}
	if res.Fiscal != nil {
		t.Error("cancellation must not carry a fiscal result")
	}

	// stock untouched
	resp2 := doGet(t, "/api/products/")
	for _, p := range decodeJSON[[]productResponse](t, resp2) {
		if p.ID == coxinha && p.Stock != before {
			t.Errorf("stock changed on cancel: got %d, want %d", p.Stock, before)
		}
	}
	resp2.Body.Close()
}

func TestCheckout_CancelRecordedSale(t *testing.T) {
	clearCart(t)
	coxinha := productID(t, "Coxinha de Frango")

	addToCart(t, coxinha)
	selectPayment(t, "PIX", "")
	resp := doPost(t, "/api/checkout/finalize", nil)
	resp.Body.Close()
	resp = doPost(t, "/api/checkout/confirm", nil)
	res := decodeJSON[resultResponse](t, resp)
	resp.Body.Close()

	cancelPath := fmt.Sprintf("/api/sales/%s/cancel", url.PathEscape(res.Sale.ID))
	resp = doPost(t, cancelPath, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel sale: expected 204, got %d", resp.StatusCode)
	}

	// one-way: second cancel misses
	resp = doPost(t, cancelPath, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cancel again: expected 404, got %d", resp.StatusCode)
	}
}

func TestPending_ParkAndRestore(t *testing.T) {
	clearCart(t)
	coxinha := productID(t, "Coxinha de Frango")

	addToCart(t, coxinha)
	addToCart(t, coxinha)

	resp := doPost(t, "/api/pending/", map[string]string{"customer": ""})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("park: expected 201, got %d", resp.StatusCode)
	}
	parked := decodeJSON[pendingResponse](t, resp)
	resp.Body.Close()
	if parked.Customer != "Cliente Balcão" {
		t.Errorf("customer: got %q", parked.Customer)
	}

	// session is clear
	resp = doGet(t, "/api/cart/")
	st := decodeJSON[statusResponse](t, resp)
	resp.Body.Close()
	if len(st.Lines) != 0 {
		t.Fatal("cart not cleared after park")
	}

	// restore brings the lines back and consumes the pending entry
	resp = doPost(t, fmt.Sprintf("/api/pending/%s/restore", parked.ID), map[string]bool{"replace": false})
	st = decodeJSON[statusResponse](t, resp)
	resp.Body.Close()
	if len(st.Lines) != 1 || st.Lines[0].Quantity != 2 {
		t.Fatalf("restored cart wrong: %+v", st.Lines)
	}

	resp = doGet(t, "/api/pending/")
	list := decodeJSON[[]pendingResponse](t, resp)
	resp.Body.Close()
	for _, p := range list {
		if p.ID == parked.ID {
			t.Fatal("restored sale still pending")
		}
	}

	clearCart(t)
}

func TestReports_TodayAndClose(t *testing.T) {
	clearCart(t)
	coxinha := productID(t, "Coxinha de Frango")

	addToCart(t, coxinha)
	selectPayment(t, "DEBIT", "")
	resp := doPost(t, "/api/checkout/finalize", nil)
	resp.Body.Close()
	resp = doPost(t, "/api/checkout/confirm", nil)
	resp.Body.Close()

	resp = doGet(t, "/api/reports/today")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("today: expected 200, got %d", resp.StatusCode)
	}
	type todayResponse struct {
		Summary struct {
			TotalSales  float64 `json:"totalSales"`
			TotalOrders int     `json:"totalOrders"`
			AvgTicket   float64 `json:"avgTicket"`
		} `json:"summary"`
		Categories []struct {
			Name     string  `json:"name"`
			Quantity int     `json:"quantity"`
			Total    float64 `json:"total"`
		} `json:"categories"`
	}
	today := decodeJSON[todayResponse](t, resp)
	resp.Body.Close()

	if today.Summary.TotalOrders < 1 {
		t.Fatalf("expected at least one completed order, got %d", today.Summary.TotalOrders)
	}
	if len(today.Categories) == 0 {
		t.Fatal("expected category breakdown")
	}

	resp = doPost(t, "/api/reports/close", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("close: expected 201, got %d", resp.StatusCode)
	}
	closed := decodeJSON[struct {
		ID   string `json:"id"`
		Date string `json:"date"`
	}](t, resp)
	resp.Body.Close()
	if closed.ID == "" || closed.Date == "" {
		t.Fatalf("closed report incomplete: %+v", closed)
	}

	resp = doDelete(t, "/api/reports/"+closed.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete report: expected 204, got %d", resp.StatusCode)
	}
}
