// Package memory provides an in-memory record store, used by tests and
// as the zero-setup backend for local development.
package memory

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/record"
)

type Store struct {
	mu            sync.Mutex
	nextID        int64
	transactions  []core.Transaction
	budgets       []core.Budget
	categories    []core.Category
	goals         []core.Goal
	accounts      []core.Account
	notifications []record.Notification
}

var _ record.Store = (*Store)(nil)

// New returns an empty store seeded with the given reference categories.
func New(categories []core.Category) *Store {
	s := &Store{nextID: 1}
	for _, c := range categories {
		c.ID = s.allocID()
		s.categories = append(s.categories, c)
	}
	return s
}

// DefaultCategories mirrors the reference data the UI expects.
func DefaultCategories() []core.Category {
	return []core.Category{
		{Name: "Groceries", Icon: "ShoppingCart", Color: "#10B981", Type: core.Expense},
		{Name: "Dining", Icon: "UtensilsCrossed", Color: "#F59E0B", Type: core.Expense},
		{Name: "Transportation", Icon: "Car", Color: "#3B82F6", Type: core.Expense},
		{Name: "Bills", Icon: "Receipt", Color: "#EF4444", Type: core.Expense},
		{Name: "Utilities", Icon: "Zap", Color: "#8B5CF6", Type: core.Expense},
		{Name: "Entertainment", Icon: "Clapperboard", Color: "#EC4899", Type: core.Expense},
		{Name: "Shopping", Icon: "ShoppingBag", Color: "#6B7280", Type: core.Expense},
		{Name: "Salary", Icon: "Banknote", Color: "#22C55E", Type: core.Income},
		{Name: "Freelance", Icon: "Laptop", Color: "#0EA5E9", Type: core.Income},
	}
}

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...), nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.allocID()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			t.ID = id
			s.transactions[i] = t
			return t, nil
		}
	}
	return core.Transaction{}, record.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return record.ErrNotFound
}

func (s *Store) ListRecurringTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.IsRecurring {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) MarkRecurringExecuted(_ context.Context, id int64, at core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id && s.transactions[i].IsRecurring {
			s.transactions[i].LastExecution = at
			return nil
		}
	}
	return record.ErrNotFound
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, len(s.budgets))
	for i, b := range s.budgets {
		out[i] = cloneBudget(b)
	}
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.allocID()
	s.budgets = append(s.budgets, cloneBudget(b))
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, id int64, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			b.ID = id
			s.budgets[i] = cloneBudget(b)
			return b, nil
		}
	}
	return core.Budget{}, record.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Goal(nil), s.goals...), nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.allocID()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, id int64, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == id {
			g.ID = id
			s.goals[i] = g
			return g, nil
		}
	}
	return core.Goal{}, record.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return record.ErrNotFound
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.allocID()
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, id int64, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			a.ID = id
			s.accounts[i] = a
			return a, nil
		}
	}
	return core.Account{}, record.ErrNotFound
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return record.ErrNotFound
}

func (s *Store) ListNotifications(_ context.Context) ([]record.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]record.Notification(nil), s.notifications...), nil
}

func (s *Store) CreateNotification(_ context.Context, n record.Notification) (record.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.allocID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = core.Date{Time: time.Now().UTC()}
	}
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return record.ErrNotFound
}

func cloneBudget(b core.Budget) core.Budget {
	limits := make(map[string]core.Money, len(b.CategoryLimits))
	for k, v := range b.CategoryLimits {
		limits[k] = v
	}
	b.CategoryLimits = limits
	return b
}
