package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Daily   Recurrence = "daily"
	Weekly  Recurrence = "weekly"
	Monthly Recurrence = "monthly"
	Yearly  Recurrence = "yearly"
)

type (
	TxType string

	Recurrence string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Amount      Money
		Type        TxType
		Category    string
		Date        Date
		Notes       string
		IsRecurring bool
		Recurrence  Recurrence // empty unless IsRecurring
		// LastExecution is when a recurring template last materialized
		// an instance. Zero for ordinary transactions and for templates
		// that never ran.
		LastExecution Date
	}

	Category struct {
		ID    int64
		Name  string
		Icon  string
		Color string
		Type  TxType
	}

	Goal struct {
		ID            int64
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      Date
	}

	Account struct {
		ID       int64
		Name     string
		Type     string // checking, savings, credit, investment
		Balance  Money
		BankName string
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyPeriodKey    = errors.New("empty period key")
)

// ValidAccountTypes lists the account kinds the UI offers.
var ValidAccountTypes = []string{"checking", "savings", "credit", "investment"}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form. Full RFC3339
// timestamps are accepted too since the SPA sends both.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (r Recurrence) Validate() error {
	switch r {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidRecurrence
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	if t.IsRecurring {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := g.Deadline.Validate(); err != nil {
		return errors.New("invalid deadline: " + err.Error())
	}
	return nil
}

// Progress returns how far along the goal is, in percent. A zero target
// reports 0 rather than dividing by zero.
func (g Goal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	return 100 * float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents)
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	for _, t := range ValidAccountTypes {
		if a.Type == t {
			return nil
		}
	}
	return errors.New("invalid account type: " + a.Type)
}
