package core

import (
	"testing"
	"time"
)

func marchPeriod() Period {
	return PeriodFor(MonthlyPeriod, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
}

func TestSpendByCategory(t *testing.T) {
	p := marchPeriod()
	txs := []Transaction{
		{Type: Expense, Category: "Groceries", Amount: Money{Cents: 5000}, Date: NewDate(2024, 3, 2)},
		{Type: Expense, Category: "Groceries", Amount: Money{Cents: 3000}, Date: NewDate(2024, 3, 31)},
		{Type: Expense, Category: "Dining", Amount: Money{Cents: 2000}, Date: NewDate(2024, 3, 10)},
		{Type: Income, Category: "Salary", Amount: Money{Cents: 500000}, Date: NewDate(2024, 3, 1)},   // income excluded
		{Type: Expense, Category: "Groceries", Amount: Money{Cents: 9999}, Date: NewDate(2024, 2, 29)}, // out of range
		{Type: Expense, Category: "Groceries", Amount: Money{Cents: 9999}},                             // zero date excluded
	}

	sums := SpendByCategory(txs, p)
	if got := sums["Groceries"].Cents; got != 8000 {
		t.Fatalf("Groceries = %d, want 8000", got)
	}
	if got := sums["Dining"].Cents; got != 2000 {
		t.Fatalf("Dining = %d, want 2000", got)
	}
	if _, ok := sums["Salary"]; ok {
		t.Fatal("income category should not appear")
	}
}

func TestSpendByCategoryOutOfRangeNeverChangesAggregate(t *testing.T) {
	p := marchPeriod()
	base := []Transaction{
		{Type: Expense, Category: "Groceries", Amount: Money{Cents: 5000}, Date: NewDate(2024, 3, 2)},
	}
	before := SpendByCategory(base, p)

	withExtra := append(base, Transaction{
		Type: Expense, Category: "Groceries", Amount: Money{Cents: 7777}, Date: NewDate(2024, 4, 1),
	})
	after := SpendByCategory(withExtra, p)

	if before["Groceries"] != after["Groceries"] {
		t.Fatalf("out-of-range transaction changed aggregate: %v -> %v", before, after)
	}
}

func TestEvaluateProgress(t *testing.T) {
	b := Budget{
		PeriodKey: "2024-03",
		Kind:      MonthlyPeriod,
		CategoryLimits: map[string]Money{
			"Groceries": {Cents: 20000},
			"Dining":    {Cents: 10000},
			"Transport": {Cents: 5000},
		},
	}
	spend := map[string]Money{
		"Groceries": {Cents: 19000}, // 95%
		"Dining":    {Cents: 12000}, // 120%
	}

	progress := EvaluateProgress(b, spend)
	if len(progress) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(progress))
	}
	// Sorted by category name.
	if progress[0].Category != "Dining" || progress[1].Category != "Groceries" || progress[2].Category != "Transport" {
		t.Fatalf("unexpected order: %v %v %v", progress[0].Category, progress[1].Category, progress[2].Category)
	}

	dining := progress[0]
	if dining.Percentage != 120 || dining.Status != OverBudget {
		t.Fatalf("Dining = %.1f%% %s, want 120%% over_budget", dining.Percentage, dining.Status)
	}
	if dining.Remaining.Cents != 0 {
		t.Fatalf("Dining remaining = %d, want 0", dining.Remaining.Cents)
	}

	groceries := progress[1]
	if groceries.Percentage != 95 || groceries.Status != AlmostExceeded {
		t.Fatalf("Groceries = %.1f%% %s, want 95%% almost_exceeded", groceries.Percentage, groceries.Status)
	}
	if groceries.Remaining.Cents != 1000 {
		t.Fatalf("Groceries remaining = %d, want 1000", groceries.Remaining.Cents)
	}

	transport := progress[2]
	if transport.Spent.Cents != 0 || transport.Percentage != 0 || transport.Status != OnTrack {
		t.Fatalf("Transport should be untouched, got %+v", transport)
	}
}

func TestEvaluateProgressZeroLimit(t *testing.T) {
	b := Budget{
		PeriodKey:      "2024-03",
		Kind:           MonthlyPeriod,
		CategoryLimits: map[string]Money{"Misc": {Cents: 0}},
	}
	progress := EvaluateProgress(b, map[string]Money{"Misc": {Cents: 5000}})
	if len(progress) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(progress))
	}
	// limit=0 pins the percentage at 0 instead of producing Inf.
	if progress[0].Percentage != 0 {
		t.Fatalf("percentage = %v, want 0", progress[0].Percentage)
	}
	if progress[0].Status != OnTrack {
		t.Fatalf("status = %s, want on_track", progress[0].Status)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want BudgetStatus
	}{
		{0, OnTrack},
		{74.999, OnTrack},
		{75, HighUsage},
		{89.999, HighUsage},
		{90, AlmostExceeded},
		{99.999, AlmostExceeded},
		{100, OverBudget},
		{250, OverBudget},
	}
	for _, tc := range cases {
		if got := classify(tc.pct); got != tc.want {
			t.Fatalf("classify(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{
		PeriodKey:      "2024-03",
		Kind:           MonthlyPeriod,
		TotalLimit:     Money{Cents: 100000},
		CategoryLimits: map[string]Money{"Groceries": {Cents: 20000}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zeroLimit := good
	zeroLimit.CategoryLimits = map[string]Money{"Misc": {Cents: 0}}
	if err := zeroLimit.Validate(); err != nil {
		t.Fatalf("zero category limit should be accepted, got %v", err)
	}

	bads := []Budget{
		{PeriodKey: "", Kind: MonthlyPeriod},
		{PeriodKey: "2024-03", Kind: "daily"},
		{PeriodKey: "2024-03", Kind: MonthlyPeriod, TotalLimit: Money{Cents: -1}},
		{PeriodKey: "2024-03", Kind: MonthlyPeriod, CategoryLimits: map[string]Money{"x": {Cents: -1}}},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
