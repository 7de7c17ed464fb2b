package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/record"
)

// transactionPayload is the write shape the client sends. Amounts come
// in as decimal strings ("12.34" or "12,34").
type transactionPayload struct {
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Notes       string `json:"notes"`
	IsRecurring bool   `json:"isRecurring"`
	Recurrence  string `json:"recurrence"`
}

type transactionDTO struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Notes       string `json:"notes"`
	IsRecurring bool   `json:"isRecurring"`
	Recurrence  string `json:"recurrence,omitempty"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		Amount:      t.Amount.String(),
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		Category:    t.Category,
		Notes:       t.Notes,
		IsRecurring: t.IsRecurring,
		Recurrence:  string(t.Recurrence),
	}
	if !t.Date.IsZero() {
		dto.Date = t.Date.Format("2006-01-02")
	}
	return dto
}

func (p transactionPayload) toDomain() (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(p.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Amount:      core.Money{Cents: cents},
		Type:        core.TxType(p.Type),
		Category:    sanitizeInput(p.Category),
		Date:        date,
		Notes:       sanitizeInput(p.Notes),
		IsRecurring: p.IsRecurring,
		Recurrence:  core.Recurrence(p.Recurrence),
	}
	return t, t.Validate()
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := payload.toDomain()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction error", "error", err,
			"category", t.Category, "amount_cents", t.Amount.Cents)
		writeError(w, r, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.invalidateDerived()
	writeJSON(w, r, http.StatusCreated, toTransactionDTO(created))
}

// handleRecurringTransactions lists the templates the recurring worker
// materializes from.
func (s *Server) handleRecurringTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	txs, err := s.store.ListRecurringTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List recurring transactions error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load recurring transactions")
		return
	}

	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id, tail, ok := pathID(r, "/api/transactions/")
	if !ok || tail != "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateTransaction(w, r, id)
	case http.MethodDelete:
		s.deleteTransaction(w, r, id)
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := payload.toDomain()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.store.UpdateTransaction(r.Context(), id, t)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update transaction error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to update transaction")
		return
	}

	s.invalidateDerived()
	writeJSON(w, r, http.StatusOK, toTransactionDTO(updated))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
