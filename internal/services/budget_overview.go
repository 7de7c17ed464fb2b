package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/alerts"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/record"
)

// OverviewState tracks where a refresh cycle is. Consumers read it to
// decide whether the current view can be trusted.
type OverviewState string

const (
	StateIdle    OverviewState = "idle"
	StateLoading OverviewState = "loading"
	StateReady   OverviewState = "ready"
	StateError   OverviewState = "error"
)

// AlertNotifier receives threshold alerts raised during a refresh.
// Implementations deliver them out of band (message queue, in-process
// store); delivery failures never fail the refresh.
type AlertNotifier interface {
	Notify(ctx context.Context, as []alerts.Alert) error
}

// CategoryView is CategoryProgress joined with category display data.
type CategoryView struct {
	Category   string            `json:"category"`
	Spent      int64             `json:"spentCents"`
	Limit      int64             `json:"limitCents"`
	Remaining  int64             `json:"remainingCents"`
	Percentage float64           `json:"percentage"`
	Status     core.BudgetStatus `json:"status"`
	Icon       string            `json:"icon"`
	Color      string            `json:"color"`
}

// Overview is the assembled budget view for one period. Alerts carries
// the thresholds newly crossed by this refresh; re-reads of the same
// data leave it empty, so consumers can toast it without de-duplicating
// on their side.
type Overview struct {
	Kind        core.PeriodKind `json:"kind"`
	PeriodKey   string          `json:"periodKey"`
	PeriodStart core.Date       `json:"periodStart"`
	PeriodEnd   core.Date       `json:"periodEnd"`
	BudgetID    int64           `json:"budgetId"`
	TotalLimit  int64           `json:"totalLimitCents"`
	TotalSpent  int64           `json:"totalSpentCents"`
	Items       []CategoryView  `json:"items"`
	Alerts      []alerts.Alert  `json:"alerts,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

type overviewStore interface {
	record.TransactionStore
	record.BudgetStore
	record.CategoryStore
}

// BudgetOverview orchestrates the period budget view: it fans out the
// source loads, derives per-category progress and raises threshold
// alerts. A generation counter discards loads superseded by a newer
// refresh, so a slow load can never overwrite fresher data.
type BudgetOverview struct {
	store    overviewStore
	deduper  *alerts.Deduper
	notifier AlertNotifier
	alertLog *applog.StructuredLogger
	now      func() time.Time

	mu         sync.Mutex
	generation uint64
	state      OverviewState
	view       Overview
	lastErr    error
}

// NewBudgetOverview wires a controller. notifier may be nil, in which
// case alerts are deduplicated but not delivered anywhere.
func NewBudgetOverview(store overviewStore, notifier AlertNotifier) *BudgetOverview {
	return &BudgetOverview{
		store:    store,
		deduper:  alerts.NewDeduper(),
		notifier: notifier,
		alertLog: applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentBudget)),
		now:      time.Now,
		state:    StateIdle,
	}
}

// State returns the controller state and, when state is StateError, the
// error that put it there.
func (c *BudgetOverview) State() (OverviewState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.lastErr
}

// Current returns the last successfully built overview. The bool is
// false until the first refresh completes.
func (c *BudgetOverview) Current() (Overview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view, c.state == StateReady
}

// Refresh rebuilds the overview for the period containing now. It loads
// budgets, categories and transactions concurrently, then derives the
// view. Only the newest refresh is allowed to publish its result.
func (c *BudgetOverview) Refresh(ctx context.Context, kind core.PeriodKind) (Overview, error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StateLoading
	now := c.now()
	c.mu.Unlock()

	var (
		budgets      []core.Budget
		categories   []core.Category
		transactions []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = c.store.ListBudgets(gctx)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = c.store.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		transactions, err = c.store.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		c.publishError(gen, err)
		return Overview{}, err
	}

	period := core.PeriodFor(kind, now)
	view := c.assemble(kind, period, budgets, categories, transactions)

	view.Alerts = c.checkAlerts(ctx, period.Key, view)

	c.mu.Lock()
	if gen != c.generation {
		// A newer refresh started while we were loading; drop this result.
		c.mu.Unlock()
		slog.DebugContext(ctx, "Discarding superseded overview refresh", "generation", gen)
		return view, nil
	}
	c.state = StateReady
	c.view = view
	c.lastErr = nil
	c.mu.Unlock()

	slog.InfoContext(ctx, "Budget overview refreshed",
		"period_key", period.Key,
		"kind", string(kind),
		"categories", len(view.Items),
		"alerts_raised", len(view.Alerts))
	return view, nil
}

// Submit stores budget limits for the period containing now, creating
// the period budget if none exists yet and updating it otherwise, then
// rebuilds the overview.
func (c *BudgetOverview) Submit(ctx context.Context, kind core.PeriodKind, totalLimit core.Money, categoryLimits map[string]core.Money) (Overview, error) {
	period := core.PeriodFor(kind, c.now())

	b := core.Budget{
		PeriodKey:      period.Key,
		Kind:           kind,
		TotalLimit:     totalLimit,
		CategoryLimits: categoryLimits,
	}
	if err := b.Validate(); err != nil {
		return Overview{}, err
	}

	existing, err := c.store.ListBudgets(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load budgets: %w", err)
	}

	var found *core.Budget
	for i := range existing {
		if existing[i].PeriodKey == period.Key && existing[i].Kind == kind {
			found = &existing[i]
			break
		}
	}

	if found == nil {
		if _, err := c.store.CreateBudget(ctx, b); err != nil {
			return Overview{}, fmt.Errorf("create budget: %w", err)
		}
	} else {
		if _, err := c.store.UpdateBudget(ctx, found.ID, b); err != nil {
			return Overview{}, fmt.Errorf("update budget: %w", err)
		}
	}

	return c.Refresh(ctx, kind)
}

func (c *BudgetOverview) publishError(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.state = StateError
	c.lastErr = err
}

// assemble derives the view: pick the period's budget, sum spend, and
// join progress rows with category display data.
func (c *BudgetOverview) assemble(kind core.PeriodKind, period core.Period, budgets []core.Budget, categories []core.Category, txs []core.Transaction) Overview {
	view := Overview{
		Kind:        kind,
		PeriodKey:   period.Key,
		PeriodStart: core.Date{Time: period.Start},
		PeriodEnd:   core.Date{Time: period.End},
		GeneratedAt: c.now(),
	}

	var budget core.Budget
	for _, b := range budgets {
		if b.PeriodKey == period.Key && b.Kind == kind {
			budget = b
			break
		}
	}

	display := make(map[string]core.Category, len(categories))
	for _, cat := range categories {
		display[cat.Name] = cat
	}

	spend := core.SpendByCategory(txs, period)
	progress := core.EvaluateProgress(budget, spend)

	view.BudgetID = budget.ID
	view.TotalLimit = budget.TotalLimit.Cents
	for _, p := range progress {
		cat := display[p.Category]
		view.Items = append(view.Items, CategoryView{
			Category:   p.Category,
			Spent:      p.Spent.Cents,
			Limit:      p.Limit.Cents,
			Remaining:  p.Remaining.Cents,
			Percentage: p.Percentage,
			Status:     p.Status,
			Icon:       cat.Icon,
			Color:      cat.Color,
		})
		view.TotalSpent += p.Spent.Cents
	}
	return view
}

// checkAlerts runs threshold detection over the fresh view and hands
// newly fired alerts to the notifier. The fired alerts are also returned
// so the view can surface them to its consumer.
func (c *BudgetOverview) checkAlerts(ctx context.Context, periodKey string, view Overview) []alerts.Alert {
	progress := make([]core.CategoryProgress, 0, len(view.Items))
	for _, item := range view.Items {
		progress = append(progress, core.CategoryProgress{
			Category:   item.Category,
			Percentage: item.Percentage,
		})
	}

	fired := c.deduper.Check(periodKey, progress)
	if len(fired) == 0 {
		return nil
	}

	for _, a := range fired {
		c.alertLog.LogAlertRaised(ctx, periodKey, a.Category, a.Tier, a.Percentage)
	}

	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, fired); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver budget alerts",
				"period_key", periodKey,
				"count", len(fired),
				"error", err)
		}
	}
	return fired
}
