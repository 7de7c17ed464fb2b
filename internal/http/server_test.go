package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/alerts"
	"fintrack/internal/core"
	"fintrack/internal/record"
	"fintrack/internal/record/memory"
	"fintrack/internal/services"
)

func recordNotification(category, periodKey string) record.Notification {
	return record.Notification{
		Severity:  alerts.SeverityWarning,
		Category:  category,
		PeriodKey: periodKey,
		Message:   category + " is over threshold",
	}
}

func newTestServer() (*Server, *memory.Store) {
	store := memory.New(memory.DefaultCategories())
	overview := services.NewBudgetOverview(store, nil)
	return NewServer(":0", store, overview, nil), store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	// Wrong method
	rr := doJSON(t, srv, http.MethodDelete, "/api/transactions", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Invalid amount
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"amount": "abc", "type": "expense", "category": "Groceries", "date": "2024-03-15",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Success
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"amount": "45.50", "type": "expense", "category": "Groceries", "date": "2024-03-15", "notes": "weekly shop",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created transactionDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.AmountCents != 4550 || created.Amount != "45.50" {
		t.Fatalf("created amount = %d / %q", created.AmountCents, created.Amount)
	}

	// List
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	if rr.Code != 200 {
		t.Fatalf("list status=%d", rr.Code)
	}
	var listed []transactionDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d transactions, want 1", len(listed))
	}

	// Update
	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), map[string]any{
		"amount": "50.00", "type": "expense", "category": "Groceries", "date": "2024-03-16",
	})
	if rr.Code != 200 {
		t.Fatalf("update status=%d: %s", rr.Code, rr.Body.String())
	}

	// Delete
	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}

	// Delete again: 404
	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", rr.Code)
	}
}

func TestRecurringTransactionList(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Shutdown(context.Background())

	_, err := store.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 120_000}, Type: core.Expense, Category: "Bills",
		Date: core.NewDate(2024, 1, 1), IsRecurring: true, Recurrence: core.Monthly,
	})
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}
	_, err = store.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 2_000}, Type: core.Expense, Category: "Dining",
		Date: core.NewDate(2024, 1, 5),
	})
	if err != nil {
		t.Fatalf("seed plain: %v", err)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/transactions/recurring", nil)
	if rr.Code != 200 {
		t.Fatalf("recurring list status=%d", rr.Code)
	}
	var listed []transactionDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode recurring list: %v", err)
	}
	if len(listed) != 1 || !listed[0].IsRecurring || listed[0].Recurrence != "monthly" {
		t.Fatalf("recurring list = %+v", listed)
	}
}

func TestBudgetSubmitAndProgress(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Shutdown(context.Background())

	now := time.Now().UTC()
	_, err := store.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 9_500}, Type: core.Expense, Category: "Dining", Date: core.Date{Time: now},
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"kind":       "monthly",
		"totalLimit": "500.00",
		"categoryLimits": map[string]string{
			"Dining": "100.00",
		},
	})
	if rr.Code != 200 {
		t.Fatalf("submit status=%d: %s", rr.Code, rr.Body.String())
	}

	var view services.Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Category != "Dining" {
		t.Fatalf("overview items = %+v", view.Items)
	}
	if view.Items[0].Status != core.AlmostExceeded {
		t.Fatalf("Dining status = %s, want almost_exceeded", view.Items[0].Status)
	}

	// Progress endpoint returns the same view, then serves it from cache.
	for i := 0; i < 2; i++ {
		rr = doJSON(t, srv, http.MethodGet, "/api/budgets/progress?kind=monthly", nil)
		if rr.Code != 200 {
			t.Fatalf("progress status=%d", rr.Code)
		}
	}

	// Unknown kind is a 400.
	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/progress?kind=fortnightly", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("progress bad kind status=%d", rr.Code)
	}
}

func TestBudgetZeroCategoryLimitAccepted(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	// A zero limit is a valid degenerate case, not a validation error.
	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"kind":       "monthly",
		"totalLimit": "500.00",
		"categoryLimits": map[string]string{
			"Misc": "0",
		},
	})
	if rr.Code != 200 {
		t.Fatalf("zero limit submit status=%d: %s", rr.Code, rr.Body.String())
	}

	var view services.Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Category != "Misc" {
		t.Fatalf("overview items = %+v", view.Items)
	}
	if view.Items[0].Percentage != 0 {
		t.Fatalf("zero-limit percentage = %v, want 0", view.Items[0].Percentage)
	}
	if view.Items[0].Status != core.OnTrack {
		t.Fatalf("zero-limit status = %s, want on_track", view.Items[0].Status)
	}

	// Negative limits still fail.
	rr = doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"kind":           "monthly",
		"totalLimit":     "500.00",
		"categoryLimits": map[string]string{"Misc": "-10"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative limit status=%d, want 422", rr.Code)
	}
}

func TestProgressDeliversAlertsOnce(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Shutdown(context.Background())

	now := time.Now().UTC()
	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"kind":           "monthly",
		"totalLimit":     "500.00",
		"categoryLimits": map[string]string{"Dining": "100.00"},
	})
	if rr.Code != 200 {
		t.Fatalf("submit status=%d: %s", rr.Code, rr.Body.String())
	}

	_, err := store.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 11_000}, Type: core.Expense, Category: "Dining", Date: core.Date{Time: now},
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	srv.invalidateDerived()

	// First read computes fresh and carries the newly fired alerts.
	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/progress?kind=monthly", nil)
	if rr.Code != 200 {
		t.Fatalf("progress status=%d", rr.Code)
	}
	var view services.Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(view.Alerts) != 2 {
		t.Fatalf("alerts = %+v, want tiers 90 and 100", view.Alerts)
	}

	// Second read hits the cache: no alert replay.
	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/progress?kind=monthly", nil)
	if rr.Code != 200 {
		t.Fatalf("cached progress status=%d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode cached overview: %v", err)
	}
	if len(view.Alerts) != 0 {
		t.Fatalf("cached alerts = %+v, want none", view.Alerts)
	}
}

func TestBudgetUpdateByID(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"kind":           "monthly",
		"totalLimit":     "300.00",
		"categoryLimits": map[string]string{"Groceries": "150.00"},
	})
	if rr.Code != 200 {
		t.Fatalf("submit status=%d: %s", rr.Code, rr.Body.String())
	}
	var view services.Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode overview: %v", err)
	}

	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/budgets/%d", view.BudgetID), map[string]any{
		"totalLimit":     "400.00",
		"categoryLimits": map[string]string{"Groceries": "200.00"},
	})
	if rr.Code != 200 {
		t.Fatalf("update status=%d: %s", rr.Code, rr.Body.String())
	}
	var updated budgetDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if updated.TotalLimit != "400.00" || updated.CategoryLimits["Groceries"] != "200.00" {
		t.Fatalf("updated budget = %+v", updated)
	}
	if updated.PeriodKey != view.PeriodKey {
		t.Fatalf("period key changed: %q -> %q", view.PeriodKey, updated.PeriodKey)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/budgets/999", map[string]any{
		"totalLimit": "1.00",
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing budget status=%d, want 404", rr.Code)
	}
}

func TestCategoriesSeeded(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := doJSON(t, srv, http.MethodGet, "/api/categories", nil)
	if rr.Code != 200 {
		t.Fatalf("categories status=%d", rr.Code)
	}
	var cats []categoryDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != len(memory.DefaultCategories()) {
		t.Fatalf("got %d categories", len(cats))
	}
}

func TestGoalContribution(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := doJSON(t, srv, http.MethodPost, "/api/goals", map[string]any{
		"name": "Emergency fund", "targetAmount": "1000.00", "deadline": "2025-12-31",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d: %s", rr.Code, rr.Body.String())
	}
	var g goalDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &g); err != nil {
		t.Fatalf("decode goal: %v", err)
	}

	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/goals/%d/add", g.ID), map[string]any{
		"amount": "250.00",
	})
	if rr.Code != 200 {
		t.Fatalf("add to goal status=%d: %s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &g); err != nil {
		t.Fatalf("decode goal: %v", err)
	}
	if g.CurrentAmount != "250.00" {
		t.Fatalf("current amount = %q, want 250.00", g.CurrentAmount)
	}
	if g.Progress != 25 {
		t.Fatalf("progress = %v, want 25", g.Progress)
	}
}

func TestAccountValidation(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{
		"name": "Main", "type": "offshore", "balance": "10.00",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid type status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{
		"name": "Main", "type": "checking", "balance": "10.00", "bankName": "Acme Bank",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status=%d: %s", rr.Code, rr.Body.String())
	}
}

func TestSpendingChart(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Shutdown(context.Background())

	_, err := store.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 2_000}, Type: core.Expense, Category: "Groceries",
		Date: core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/charts/spending?year=2024&month=3", nil)
	if rr.Code != 200 {
		t.Fatalf("chart status=%d", rr.Code)
	}
	var chart spendingChart
	if err := json.Unmarshal(rr.Body.Bytes(), &chart); err != nil {
		t.Fatalf("decode chart: %v", err)
	}
	if chart.TotalCents != 2_000 || len(chart.Slices) != 1 {
		t.Fatalf("chart = %+v", chart)
	}
	if chart.Slices[0].Icon != "ShoppingCart" {
		t.Fatalf("slice icon = %q", chart.Slices[0].Icon)
	}
}

func TestExportCSV(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Shutdown(context.Background())

	_, err := store.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 1_234}, Type: core.Expense, Category: "Bills",
		Date: core.NewDate(2024, 3, 1), Notes: "electricity",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/export", nil)
	if rr.Code != 200 {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "electricity") {
		t.Fatalf("csv body missing row: %s", rr.Body.String())
	}
}

func TestExportSheetsUnconfigured(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := doJSON(t, srv, http.MethodPost, "/api/export/sheets", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("export sheets status=%d, want 503", rr.Code)
	}
}

type fakeExporter struct{ rows int }

func (f *fakeExporter) Export(_ context.Context, txs []core.Transaction) (int, error) {
	f.rows = len(txs)
	return len(txs), nil
}

func TestExportSheets(t *testing.T) {
	store := memory.New(memory.DefaultCategories())
	overview := services.NewBudgetOverview(store, nil)
	exporter := &fakeExporter{}
	srv := NewServer(":0", store, overview, exporter)
	defer srv.Shutdown(context.Background())

	_, err := store.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 500}, Type: core.Expense, Category: "Dining",
		Date: core.NewDate(2024, 3, 2),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/export/sheets", nil)
	if rr.Code != 200 {
		t.Fatalf("export sheets status=%d: %s", rr.Code, rr.Body.String())
	}
	if exporter.rows != 1 {
		t.Fatalf("exporter saw %d rows, want 1", exporter.rows)
	}
}

func TestNotificationsReadFlow(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Shutdown(context.Background())

	n, err := store.CreateNotification(context.Background(), recordNotification("Dining", "2024-03"))
	if err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/notifications", nil)
	if rr.Code != 200 {
		t.Fatalf("list notifications status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", n.ID), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("mark read status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/notifications/999/read", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("mark read missing status=%d", rr.Code)
	}
}
