package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/record"
)

type goalPayload struct {
	Name          string `json:"name"`
	TargetAmount  string `json:"targetAmount"`
	CurrentAmount string `json:"currentAmount"`
	Deadline      string `json:"deadline"`
}

type goalDTO struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  string  `json:"targetAmount"`
	CurrentAmount string  `json:"currentAmount"`
	Deadline      string  `json:"deadline"`
	Progress      float64 `json:"progress"`
}

func toGoalDTO(g core.Goal) goalDTO {
	dto := goalDTO{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		Progress:      g.Progress(),
	}
	if !g.Deadline.IsZero() {
		dto.Deadline = g.Deadline.Format("2006-01-02")
	}
	return dto
}

func (p goalPayload) toDomain() (core.Goal, error) {
	target, err := core.ParseDecimalToCents(p.TargetAmount)
	if err != nil {
		return core.Goal{}, err
	}
	var current int64
	if p.CurrentAmount != "" {
		current, err = core.ParseDecimalToCents(p.CurrentAmount)
		if err != nil {
			return core.Goal{}, err
		}
	}
	deadline, err := core.ParseDate(p.Deadline)
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{
		Name:          sanitizeInput(p.Name),
		TargetAmount:  core.Money{Cents: target},
		CurrentAmount: core.Money{Cents: current},
		Deadline:      deadline,
	}
	return g, g.Validate()
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listGoals(w, r)
	case http.MethodPost:
		s.createGoal(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List goals error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load goals")
		return
	}

	out := make([]goalDTO, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalDTO(g))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	var payload goalPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	g, err := payload.toDomain()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateGoal(r.Context(), g)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create goal error", "error", err, "name", g.Name)
		writeError(w, r, http.StatusInternalServerError, "failed to save goal")
		return
	}

	writeJSON(w, r, http.StatusCreated, toGoalDTO(created))
}

func (s *Server) handleGoalByID(w http.ResponseWriter, r *http.Request) {
	id, tail, ok := pathID(r, "/api/goals/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodPut:
		s.updateGoal(w, r, id)
	case tail == "" && r.Method == http.MethodDelete:
		s.deleteGoal(w, r, id)
	case tail == "/add" && r.Method == http.MethodPost:
		s.addToGoal(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (s *Server) updateGoal(w http.ResponseWriter, r *http.Request, id int64) {
	var payload goalPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	g, err := payload.toDomain()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.store.UpdateGoal(r.Context(), id, g)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "goal not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update goal error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to update goal")
		return
	}

	writeJSON(w, r, http.StatusOK, toGoalDTO(updated))
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.store.DeleteGoal(r.Context(), id); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "goal not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete goal error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// addToGoal adds a contribution to a goal's current amount.
func (s *Server) addToGoal(w http.ResponseWriter, r *http.Request, id int64) {
	var payload struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(payload.Amount)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid amount: "+err.Error())
		return
	}

	goals, err := s.store.ListGoals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List goals error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load goals")
		return
	}

	var target *core.Goal
	for i := range goals {
		if goals[i].ID == id {
			target = &goals[i]
			break
		}
	}
	if target == nil {
		writeError(w, r, http.StatusNotFound, "goal not found")
		return
	}

	target.CurrentAmount.Cents += cents
	updated, err := s.store.UpdateGoal(r.Context(), id, *target)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add to goal error", "error", err, "id", id, "amount_cents", cents)
		writeError(w, r, http.StatusInternalServerError, "failed to update goal")
		return
	}

	writeJSON(w, r, http.StatusOK, toGoalDTO(updated))
}
