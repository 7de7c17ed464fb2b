package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/record"
)

// RecurringProcessor materializes concrete transactions from recurring
// templates. The template itself stays flagged recurring; each run
// writes a plain instance dated now and stamps the template's last
// execution.
type RecurringProcessor struct {
	store record.TransactionStore
}

// NewRecurringProcessor creates a new recurring transaction processor.
func NewRecurringProcessor(store record.TransactionStore) *RecurringProcessor {
	return &RecurringProcessor{store: store}
}

// ProcessDue materializes every template that is due at now and returns
// how many instances were created. Per-template failures are logged and
// skipped so one bad template cannot stall the rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.store.ListRecurringTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_templates", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0

	for _, tpl := range templates {
		checker, err := GetDuenessChecker(tpl.Recurrence)
		if err != nil {
			slog.ErrorContext(ctx, "Template with unknown recurrence",
				"id", tpl.ID,
				"recurrence", string(tpl.Recurrence))
			continue
		}

		if !checker.IsDue(tpl.LastExecution.Time, now, tpl.Date) {
			continue
		}

		instance := core.Transaction{
			Amount:   tpl.Amount,
			Type:     tpl.Type,
			Category: tpl.Category,
			Date:     core.Date{Time: now},
			Notes:    tpl.Notes,
		}

		if _, err := p.store.CreateTransaction(ctx, instance); err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from template",
				"template_id", tpl.ID,
				"category", tpl.Category,
				"error", err)
			continue
		}

		if err := p.store.MarkRecurringExecuted(ctx, tpl.ID, core.Date{Time: now}); err != nil {
			slog.ErrorContext(ctx, "Failed to stamp template execution",
				"template_id", tpl.ID,
				"error", err)
			// Continue anyway - the instance was created successfully
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"template_id", tpl.ID,
			"category", tpl.Category,
			"amount_cents", tpl.Amount.Cents,
			"recurrence", string(tpl.Recurrence))
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}
