package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

type spendingSlice struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amountCents"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// spendingChart is the per-category expense breakdown for one month.
type spendingChart struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	TotalCents int64           `json:"totalCents"`
	Slices     []spendingSlice `json:"slices"`
}

type trendPoint struct {
	Key          string `json:"key"`
	IncomeCents  int64  `json:"incomeCents"`
	ExpenseCents int64  `json:"expenseCents"`
}

// trendChart is the month-by-month income/expense series ending at the
// current month.
type trendChart struct {
	Months []trendPoint `json:"months"`
}

// handleSpendingChart returns the expense breakdown for a month
// (?year=&month=, defaulting to now).
func (s *Server) handleSpendingChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, month := parseYearMonth(r)
	key := fmt.Sprintf("%04d-%02d", year, month)

	if chart, found := s.spendingCache.Get(key); found {
		slog.DebugContext(r.Context(), "Spending chart cache hit", "key", key)
		writeJSON(w, r, http.StatusOK, chart)
		return
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load categories")
		return
	}
	display := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		display[c.Name] = c
	}

	ref := time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
	period := core.PeriodFor(core.MonthlyPeriod, ref)
	spend := core.SpendByCategory(txs, period)

	chart := spendingChart{Year: year, Month: month}
	for category, amount := range spend {
		c := display[category]
		chart.Slices = append(chart.Slices, spendingSlice{
			Category:    category,
			AmountCents: amount.Cents,
			Icon:        c.Icon,
			Color:       c.Color,
		})
		chart.TotalCents += amount.Cents
	}
	sort.Slice(chart.Slices, func(i, j int) bool {
		return chart.Slices[i].AmountCents > chart.Slices[j].AmountCents
	})

	s.spendingCache.Set(key, chart)
	writeJSON(w, r, http.StatusOK, chart)
}

// handleTrendChart returns income and expense totals for the last N
// months (?months=, default 6, max 24).
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	months := 6
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 24 {
			months = n
		}
	}

	key := strconv.Itoa(months)
	if chart, found := s.trendCache.Get(key); found {
		slog.DebugContext(r.Context(), "Trend chart cache hit", "months", months)
		writeJSON(w, r, http.StatusOK, chart)
		return
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	now := time.Now().UTC()
	chart := trendChart{Months: make([]trendPoint, 0, months)}
	for i := months - 1; i >= 0; i-- {
		ref := time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		period := core.PeriodFor(core.MonthlyPeriod, ref)

		point := trendPoint{Key: period.Key}
		for _, t := range txs {
			if t.Date.IsZero() || !period.Contains(t.Date.Time) {
				continue
			}
			switch t.Type {
			case core.Income:
				point.IncomeCents += t.Amount.Cents
			case core.Expense:
				point.ExpenseCents += t.Amount.Cents
			}
		}
		chart.Months = append(chart.Months, point)
	}

	s.trendCache.Set(key, chart)
	writeJSON(w, r, http.StatusOK, chart)
}
