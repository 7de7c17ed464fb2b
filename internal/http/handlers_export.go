package http

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
)

// handleExportCSV streams every transaction as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "date", "type", "category", "amount", "notes", "recurring"})
	for _, t := range txs {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format("2006-01-02")
		}
		_ = cw.Write([]string{
			strconv.FormatInt(t.ID, 10),
			date,
			string(t.Type),
			t.Category,
			t.Amount.String(),
			t.Notes,
			strconv.FormatBool(t.IsRecurring),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "CSV export write error", "error", err)
	}

	slog.InfoContext(r.Context(), "Exported transactions as CSV", "count", len(txs))
}

// handleExportSheets pushes all transactions to the configured Google
// spreadsheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.exporter == nil {
		writeError(w, r, http.StatusServiceUnavailable, "sheets export is not configured")
		return
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	rows, err := s.exporter.Export(r.Context(), txs)
	if err != nil {
		slog.ErrorContext(r.Context(), "Sheets export error", "error", err, "count", len(txs))
		writeError(w, r, http.StatusBadGateway, "failed to export to sheets")
		return
	}

	slog.InfoContext(r.Context(), "Exported transactions to sheets", "rows", rows)
	writeJSON(w, r, http.StatusOK, struct {
		Rows int `json:"rows"`
	}{Rows: rows})
}
