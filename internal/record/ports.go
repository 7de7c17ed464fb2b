// Package record defines the ports to the backing record store. The
// rest of the application depends only on these interfaces; SQLite and
// in-memory adapters implement them.
package record

import (
	"context"
	"errors"

	"fintrack/internal/alerts"
	"fintrack/internal/core"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Notification is a persisted budget alert, written by the worker and
// read back through the API.
type Notification struct {
	ID        int64
	Severity  alerts.Severity
	Category  string
	PeriodKey string
	Message   string
	CreatedAt core.Date
	Read      bool
}

type (
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
		// ListRecurringTransactions returns templates flagged recurring.
		ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error)
		// MarkRecurringExecuted records when a template last materialized.
		MarkRecurringExecuted(ctx context.Context, id int64, at core.Date) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, id int64, b core.Budget) (core.Budget, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, id int64, g core.Goal) (core.Goal, error)
		DeleteGoal(ctx context.Context, id int64) error
	}

	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		UpdateAccount(ctx context.Context, id int64, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, id int64) error
	}

	NotificationStore interface {
		ListNotifications(ctx context.Context) ([]Notification, error)
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		MarkNotificationRead(ctx context.Context, id int64) error
	}
)

// Store bundles every port. The SQLite repository and the memory store
// both satisfy it; handlers take the narrow interfaces they need.
type Store interface {
	TransactionStore
	BudgetStore
	CategoryStore
	GoalStore
	AccountStore
	NotificationStore
}
