package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/record"
)

// budgetPayload carries the limits the client submits for the current
// period. Limits are decimal strings keyed by category name.
type budgetPayload struct {
	Kind           string            `json:"kind"`
	TotalLimit     string            `json:"totalLimit"`
	CategoryLimits map[string]string `json:"categoryLimits"`
}

type budgetDTO struct {
	ID             int64            `json:"id"`
	PeriodKey      string           `json:"periodKey"`
	Kind           string           `json:"kind"`
	TotalLimit     string           `json:"totalLimit"`
	CategoryLimits map[string]string `json:"categoryLimits"`
}

func toBudgetDTO(b core.Budget) budgetDTO {
	limits := make(map[string]string, len(b.CategoryLimits))
	for k, v := range b.CategoryLimits {
		limits[k] = v.String()
	}
	return budgetDTO{
		ID:             b.ID,
		PeriodKey:      b.PeriodKey,
		Kind:           string(b.Kind),
		TotalLimit:     b.TotalLimit.String(),
		CategoryLimits: limits,
	}
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBudgets(w, r)
	case http.MethodPost:
		s.submitBudget(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load budgets")
		return
	}

	out := make([]budgetDTO, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetDTO(b))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// submitBudget stores limits for the current period and responds with
// the freshly derived overview.
func (s *Server) submitBudget(w http.ResponseWriter, r *http.Request) {
	var payload budgetPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	kind := core.PeriodKind(payload.Kind)
	if payload.Kind == "" {
		kind = core.MonthlyPeriod
	}
	if err := kind.Validate(); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	totalCents, err := core.ParseDecimalToCents(payload.TotalLimit)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid total limit: "+err.Error())
		return
	}

	limits := make(map[string]core.Money, len(payload.CategoryLimits))
	for category, v := range payload.CategoryLimits {
		cents, err := core.ParseLimitToCents(v)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid limit for "+category+": "+err.Error())
			return
		}
		limits[sanitizeInput(category)] = core.Money{Cents: cents}
	}

	view, err := s.overview.Submit(r.Context(), kind, core.Money{Cents: totalCents}, limits)
	if err != nil {
		slog.ErrorContext(r.Context(), "Submit budget error", "error", err, "kind", string(kind))
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateDerived()
	writeJSON(w, r, http.StatusOK, view)
}

// handleBudgetByID updates a stored budget's limits in place. The period
// key and kind stay whatever they were; only limits change.
func (s *Server) handleBudgetByID(w http.ResponseWriter, r *http.Request) {
	id, tail, ok := pathID(r, "/api/budgets/")
	if !ok || tail != "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodPut {
		w.Header().Set("Allow", "PUT")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload budgetPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load budgets")
		return
	}
	var existing *core.Budget
	for i := range budgets {
		if budgets[i].ID == id {
			existing = &budgets[i]
			break
		}
	}
	if existing == nil {
		writeError(w, r, http.StatusNotFound, "budget not found")
		return
	}

	totalCents, err := core.ParseDecimalToCents(payload.TotalLimit)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid total limit: "+err.Error())
		return
	}
	limits := make(map[string]core.Money, len(payload.CategoryLimits))
	for category, v := range payload.CategoryLimits {
		cents, err := core.ParseLimitToCents(v)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid limit for "+category+": "+err.Error())
			return
		}
		limits[sanitizeInput(category)] = core.Money{Cents: cents}
	}

	next := *existing
	next.TotalLimit = core.Money{Cents: totalCents}
	next.CategoryLimits = limits
	if err := next.Validate(); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.store.UpdateBudget(r.Context(), id, next)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update budget error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to update budget")
		return
	}

	s.invalidateDerived()
	writeJSON(w, r, http.StatusOK, toBudgetDTO(updated))
}

// handleBudgetProgress returns the derived per-category progress for the
// period containing now. Results are cached briefly per period kind.
func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	kind, err := parseKind(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := string(kind)
	if view, found := s.progressCache.Get(cacheKey); found {
		slog.DebugContext(r.Context(), "Progress cache hit", "kind", cacheKey)
		writeJSON(w, r, http.StatusOK, view)
		return
	}

	view, err := s.overview.Refresh(r.Context(), kind)
	if err != nil {
		s.httpLog.LogError(r.Context(), "Budget progress error", err, applog.ComponentBudget, applog.OpRefresh,
			applog.NewFields().With(applog.FieldPeriodKind, cacheKey))
		writeError(w, r, http.StatusInternalServerError, "failed to compute budget progress")
		return
	}

	// Alerts fire once per threshold; cache the view without them so a
	// cache hit cannot replay an already-delivered alert.
	cached := view
	cached.Alerts = nil
	s.progressCache.Set(cacheKey, cached)
	writeJSON(w, r, http.StatusOK, view)
}
