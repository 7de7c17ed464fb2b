package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/record"
)

type accountPayload struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balance  string `json:"balance"`
	BankName string `json:"bankName"`
}

type accountDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balance  string `json:"balance"`
	BankName string `json:"bankName"`
}

func toAccountDTO(a core.Account) accountDTO {
	return accountDTO{
		ID:       a.ID,
		Name:     a.Name,
		Type:     a.Type,
		Balance:  a.Balance.String(),
		BankName: a.BankName,
	}
}

func (p accountPayload) toDomain() (core.Account, error) {
	var cents int64
	if p.Balance != "" {
		var err error
		cents, err = core.ParseDecimalToCents(p.Balance)
		if err != nil {
			return core.Account{}, err
		}
	}
	a := core.Account{
		Name:     sanitizeInput(p.Name),
		Type:     p.Type,
		Balance:  core.Money{Cents: cents},
		BankName: sanitizeInput(p.BankName),
	}
	return a, a.Validate()
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAccounts(w, r)
	case http.MethodPost:
		s.createAccount(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List accounts error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load accounts")
		return
	}

	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountDTO(a))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := payload.toDomain()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateAccount(r.Context(), a)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create account error", "error", err, "name", a.Name)
		writeError(w, r, http.StatusInternalServerError, "failed to save account")
		return
	}

	writeJSON(w, r, http.StatusCreated, toAccountDTO(created))
}

func (s *Server) handleAccountByID(w http.ResponseWriter, r *http.Request) {
	id, tail, ok := pathID(r, "/api/accounts/")
	if !ok || tail != "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateAccount(w, r, id)
	case http.MethodDelete:
		s.deleteAccount(w, r, id)
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request, id int64) {
	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := payload.toDomain()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.store.UpdateAccount(r.Context(), id, a)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "account not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update account error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to update account")
		return
	}

	writeJSON(w, r, http.StatusOK, toAccountDTO(updated))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "account not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete account error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
