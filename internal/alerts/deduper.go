// Package alerts turns budget progress into threshold alerts and makes
// sure each one fires at most once per period.
package alerts

import (
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// Severity of a fired alert, mapped by the presentation layer onto
// toast/banner styling.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Tiers are the spend-percentage thresholds that independently gate an
// alert, in ascending order.
var Tiers = []int{90, 100, 125}

// Alert describes a single newly-crossed threshold for one category.
type Alert struct {
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	Tier       int      `json:"tier"`
	Percentage float64  `json:"percentage"`
	PeriodKey  string   `json:"periodKey"`
	Message    string   `json:"message"`
}

// Deduper tracks which (period, category, tier) alerts have already been
// surfaced within a session. It is owned by the budget controller and
// injected where alert checks run; the fired set lives only in memory
// and resets when the period rolls over or the process restarts.
type Deduper struct {
	mu        sync.Mutex
	periodKey string
	fired     map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{fired: make(map[string]struct{})}
}

// Check reports the alerts newly crossed by this evaluation and marks
// them as fired. Every tier at or below the category's percentage fires,
// so a jump from 85% to 130% produces the 90, 100 and 125 alerts in one
// call, each exactly once per period. The read-and-update runs under one
// lock so racing recomputations cannot double-fire.
func (d *Deduper) Check(periodKey string, progress []core.CategoryProgress) []Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	if periodKey != d.periodKey {
		// New month/week: previous period's suppressions no longer apply.
		d.periodKey = periodKey
		d.fired = make(map[string]struct{})
	}

	var out []Alert
	for _, p := range progress {
		for _, tier := range Tiers {
			if p.Percentage < float64(tier) {
				break
			}
			key := fmt.Sprintf("%s|%s|%d", periodKey, p.Category, tier)
			if _, seen := d.fired[key]; seen {
				continue
			}
			d.fired[key] = struct{}{}
			out = append(out, newAlert(periodKey, p, tier))
		}
	}
	return out
}

// Reset clears the fired set for the given period key. Passing the
// current key re-arms every alert; passing a new key has the same effect
// as the rollover handling in Check.
func (d *Deduper) Reset(periodKey string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.periodKey = periodKey
	d.fired = make(map[string]struct{})
}

func newAlert(periodKey string, p core.CategoryProgress, tier int) Alert {
	a := Alert{
		Category:   p.Category,
		Tier:       tier,
		Percentage: p.Percentage,
		PeriodKey:  periodKey,
	}
	switch tier {
	case 90:
		a.Severity = SeverityWarning
		a.Message = fmt.Sprintf("%s is at %.1f%% of its budget", p.Category, p.Percentage)
	case 100:
		a.Severity = SeverityError
		a.Message = fmt.Sprintf("%s has exceeded its budget (%.1f%%)", p.Category, p.Percentage)
	default:
		a.Severity = SeverityError
		a.Message = fmt.Sprintf("Serious overspend on %s: %.1f%% of its budget", p.Category, p.Percentage)
	}
	return a
}
