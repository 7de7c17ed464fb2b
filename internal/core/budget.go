package core

import (
	"sort"
	"strings"
)

const (
	OnTrack        BudgetStatus = "on_track"
	HighUsage      BudgetStatus = "high_usage"
	AlmostExceeded BudgetStatus = "almost_exceeded"
	OverBudget     BudgetStatus = "over_budget"
)

type (
	BudgetStatus string

	Budget struct {
		ID             int64
		PeriodKey      string
		Kind           PeriodKind
		TotalLimit     Money
		CategoryLimits map[string]Money
	}

	// CategoryProgress is the derived per-category view of a budget:
	// limit versus actual spend for the current period. It is recomputed
	// from source data on every evaluation and never persisted.
	CategoryProgress struct {
		Category   string
		Spent      Money
		Limit      Money
		Remaining  Money
		Percentage float64
		Status     BudgetStatus
	}
)

func (b Budget) Validate() error {
	if err := b.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.PeriodKey) == "" {
		return ErrEmptyPeriodKey
	}
	if b.TotalLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	for name, limit := range b.CategoryLimits {
		if strings.TrimSpace(name) == "" {
			return ErrEmptyCategory
		}
		// A zero limit is a degenerate but accepted case; progress for
		// it pins at 0%. Negative limits are rejected outright.
		if limit.Cents < 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

// SpendByCategory sums expense transactions that fall inside the period,
// grouped by category. Income rows, rows outside [Start,End] and rows
// whose date never parsed (zero date) are excluded. Pure function.
func SpendByCategory(txs []Transaction, p Period) map[string]Money {
	sums := make(map[string]Money)
	for _, t := range txs {
		if t.Type != Expense || t.Category == "" {
			continue
		}
		if t.Date.IsZero() || !p.Contains(t.Date.Time) {
			continue
		}
		s := sums[t.Category]
		s.Cents += t.Amount.Cents
		sums[t.Category] = s
	}
	return sums
}

// EvaluateProgress produces one CategoryProgress per category limit in
// the budget, sorted by category name for stable output. Categories with
// no spend report 0; a zero limit reports 0% rather than dividing by
// zero.
func EvaluateProgress(b Budget, spend map[string]Money) []CategoryProgress {
	out := make([]CategoryProgress, 0, len(b.CategoryLimits))
	for category, limit := range b.CategoryLimits {
		spent := spend[category]
		pct := 0.0
		if limit.Cents > 0 {
			pct = 100 * float64(spent.Cents) / float64(limit.Cents)
		}
		remaining := Money{Cents: limit.Cents - spent.Cents}
		if remaining.Cents < 0 {
			remaining.Cents = 0
		}
		out = append(out, CategoryProgress{
			Category:   category,
			Spent:      spent,
			Limit:      limit,
			Remaining:  remaining,
			Percentage: pct,
			Status:     classify(pct),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// classify maps a spend percentage to a status. Ties resolve to the
// higher threshold.
func classify(pct float64) BudgetStatus {
	switch {
	case pct >= 100:
		return OverBudget
	case pct >= 90:
		return AlmostExceeded
	case pct >= 75:
		return HighUsage
	default:
		return OnTrack
	}
}
