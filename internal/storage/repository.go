// Package storage implements the record ports on SQLite. Row scanning
// and the JSON category-limit column are the only places where the
// storage schema leaks; everything is translated to core types here.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/alerts"
	"fintrack/internal/core"
	"fintrack/internal/record"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

var _ record.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, type, category, tx_date, notes, is_recurring, recurrence, last_execution
		FROM transactions
		ORDER BY tx_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(ctx, rows)
}

func (r *SQLiteRepository) ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, type, category, tx_date, notes, is_recurring, recurrence, last_execution
		FROM transactions
		WHERE is_recurring = 1
		ORDER BY tx_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(ctx, rows)
}

func scanTransactions(ctx context.Context, rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			t         core.Transaction
			dateStr   string
			recurring int64
			lastExec  string
		)
		if err := rows.Scan(&t.ID, &t.Amount.Cents, &t.Type, &t.Category, &dateStr, &t.Notes, &recurring, &t.Recurrence, &lastExec); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.IsRecurring = recurring != 0
		if parsed, err := time.Parse(dateLayout, dateStr); err == nil {
			t.Date = core.Date{Time: parsed}
		} else {
			// Malformed dates stay zero; aggregation skips them.
			slog.WarnContext(ctx, "Transaction with unparseable date", "id", t.ID, "date", dateStr)
		}
		if parsed, err := time.Parse(dateLayout, lastExec); err == nil {
			t.LastExecution = core.Date{Time: parsed}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (amount_cents, type, category, tx_date, notes, is_recurring, recurrence)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Amount.Cents, string(t.Type), t.Category, t.Date.Format(dateLayout), t.Notes, boolToInt(t.IsRecurring), string(t.Recurrence))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", string(t.Type),
		"category", t.Category,
		"amount_cents", t.Amount.Cents)
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, type = ?, category = ?, tx_date = ?, notes = ?, is_recurring = ?, recurrence = ?
		WHERE id = ?`,
		t.Amount.Cents, string(t.Type), t.Category, t.Date.Format(dateLayout), t.Notes, boolToInt(t.IsRecurring), string(t.Recurrence), id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.Transaction{}, err
	}
	t.ID = id
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) MarkRecurringExecuted(ctx context.Context, id int64, at core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET last_execution = ? WHERE id = ? AND is_recurring = 1`,
		at.Format(dateLayout), id)
	if err != nil {
		return fmt.Errorf("mark recurring executed: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, period_key, kind, total_limit_cents, category_limits
		FROM budgets
		ORDER BY period_key DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b          core.Budget
			limitsJSON string
		)
		if err := rows.Scan(&b.ID, &b.PeriodKey, &b.Kind, &b.TotalLimit.Cents, &limitsJSON); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		limits, err := decodeCategoryLimits(limitsJSON)
		if err != nil {
			slog.WarnContext(ctx, "Budget with malformed category limits", "id", b.ID, "error", err)
			limits = map[string]core.Money{}
		}
		b.CategoryLimits = limits
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	limitsJSON, err := encodeCategoryLimits(b.CategoryLimits)
	if err != nil {
		return core.Budget{}, fmt.Errorf("encode category limits: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (period_key, kind, total_limit_cents, category_limits)
		VALUES (?, ?, ?, ?)`,
		b.PeriodKey, string(b.Kind), b.TotalLimit.Cents, limitsJSON)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	b.ID = id

	slog.InfoContext(ctx, "Budget saved",
		"id", b.ID,
		"period_key", b.PeriodKey,
		"kind", string(b.Kind),
		"categories", len(b.CategoryLimits))
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, id int64, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	limitsJSON, err := encodeCategoryLimits(b.CategoryLimits)
	if err != nil {
		return core.Budget{}, fmt.Errorf("encode category limits: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET period_key = ?, kind = ?, total_limit_cents = ?, category_limits = ?
		WHERE id = ?`,
		b.PeriodKey, string(b.Kind), b.TotalLimit.Cents, limitsJSON, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.Budget{}, err
	}
	b.ID = id
	return b, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon, color, type FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_cents, current_cents, deadline FROM goals ORDER BY deadline`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g        core.Goal
			deadline string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &deadline); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if parsed, err := time.Parse(dateLayout, deadline); err == nil {
			g.Deadline = core.Date{Time: parsed}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (name, target_cents, current_cents, deadline) VALUES (?, ?, ?, ?)`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline.Format(dateLayout))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	g.ID = id
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, id int64, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET name = ?, target_cents = ?, current_cents = ?, deadline = ? WHERE id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline.Format(dateLayout), id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.Goal{}, err
	}
	g.ID = id
	return g, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, balance_cents, bank_name FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Balance.Cents, &a.BankName); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (name, type, balance_cents, bank_name) VALUES (?, ?, ?, ?)`,
		a.Name, a.Type, a.Balance.Cents, a.BankName)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	a.ID = id
	return a, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id int64, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, balance_cents = ?, bank_name = ? WHERE id = ?`,
		a.Name, a.Type, a.Balance.Cents, a.BankName, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.Account{}, err
	}
	a.ID = id
	return a, nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context) ([]record.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, severity, category, period_key, message, created_at, read
		FROM notifications
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []record.Notification
	for rows.Next() {
		var (
			n         record.Notification
			severity  string
			createdAt string
			read      int64
		)
		if err := rows.Scan(&n.ID, &severity, &n.Category, &n.PeriodKey, &n.Message, &createdAt, &read); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Severity = alerts.Severity(severity)
		n.Read = read != 0
		if parsed, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			n.CreatedAt = core.Date{Time: parsed}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n record.Notification) (record.Notification, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (severity, category, period_key, message) VALUES (?, ?, ?, ?)`,
		string(n.Severity), n.Category, n.PeriodKey, n.Message)
	if err != nil {
		return record.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return record.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	n.ID = id
	return n, nil
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

// encodeCategoryLimits serializes per-category cent limits as the JSON
// object stored in budgets.category_limits.
func encodeCategoryLimits(limits map[string]core.Money) (string, error) {
	cents := make(map[string]int64, len(limits))
	for k, v := range limits {
		cents[k] = v.Cents
	}
	b, err := json.Marshal(cents)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCategoryLimits(s string) (map[string]core.Money, error) {
	if s == "" {
		return map[string]core.Money{}, nil
	}
	var cents map[string]int64
	if err := json.Unmarshal([]byte(s), &cents); err != nil {
		return nil, err
	}
	limits := make(map[string]core.Money, len(cents))
	for k, v := range cents {
		limits[k] = core.Money{Cents: v}
	}
	return limits, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return record.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
