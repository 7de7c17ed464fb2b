package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2024, 1, 1), true},
		{NewDate(2024, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 15 {
		t.Fatalf("unexpected date %v", d)
	}

	d, err = ParseDate("2024-03-15T10:30:00Z")
	if err != nil {
		t.Fatalf("expected RFC3339 accepted, got %v", err)
	}
	if d.Day() != 15 {
		t.Fatalf("unexpected day %d", d.Day())
	}

	if _, err := ParseDate("not a date"); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:   Money{Cents: 1250},
		Type:     Expense,
		Category: "Groceries",
		Date:     NewDate(2024, 3, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Amount: Money{Cents: 1}, Type: Expense, Category: "c"},                                                // zero date
		{Amount: Money{Cents: 0}, Type: Expense, Category: "c", Date: NewDate(2024, 1, 1)},                     // zero amount
		{Amount: Money{Cents: 1}, Type: "transfer", Category: "c", Date: NewDate(2024, 1, 1)},                  // bad type
		{Amount: Money{Cents: 1}, Type: Income, Category: "", Date: NewDate(2024, 1, 1)},                       // no category
		{Amount: Money{Cents: 1}, Type: Expense, Category: "c", Date: NewDate(2024, 1, 1), IsRecurring: true},  // recurring without pattern
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	recurring := good
	recurring.IsRecurring = true
	recurring.Recurrence = Monthly
	if err := recurring.Validate(); err != nil {
		t.Fatalf("expected recurring ok, got %v", err)
	}
}

func TestGoalProgress(t *testing.T) {
	g := Goal{TargetAmount: Money{Cents: 10000}, CurrentAmount: Money{Cents: 2500}}
	if got := g.Progress(); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
	zero := Goal{TargetAmount: Money{Cents: 0}, CurrentAmount: Money{Cents: 2500}}
	if got := zero.Progress(); got != 0 {
		t.Fatalf("expected 0 for zero target, got %v", got)
	}
}

func TestAccountValidate(t *testing.T) {
	ok := Account{Name: "Main", Type: "checking", Balance: Money{Cents: 100}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Account{Name: "", Type: "checking"}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := (Account{Name: "x", Type: "offshore"}).Validate(); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
