package core

import (
	"fmt"
	"time"
)

const (
	MonthlyPeriod PeriodKind = "monthly"
	WeeklyPeriod  PeriodKind = "weekly"
)

type (
	PeriodKind string

	// Period is an inclusive date range with a stable key that scopes a
	// budget and its alerts, e.g. "2024-03" or "2024-W11".
	Period struct {
		Start time.Time
		End   time.Time
		Key   string
	}
)

func (k PeriodKind) Validate() error {
	switch k {
	case MonthlyPeriod, WeeklyPeriod:
		return nil
	default:
		return fmt.Errorf("invalid period kind %q", string(k))
	}
}

// PeriodFor computes the period containing ref. Monthly periods run from
// the first to the last calendar day of ref's month; weekly periods run
// Monday through Sunday. End sits on the last millisecond of the range so
// that [Start,End] is inclusive. Unknown kinds fall back to monthly.
func PeriodFor(kind PeriodKind, ref time.Time) Period {
	switch kind {
	case WeeklyPeriod:
		return weekOf(ref)
	default:
		return monthOf(ref)
	}
}

func monthOf(ref time.Time) Period {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return Period{
		Start: start,
		End:   end,
		Key:   start.Format("2006-01"),
	}
}

func weekOf(ref time.Time) Period {
	// time.Weekday makes Sunday 0; shift so Monday is the week start.
	offset := (int(ref.Weekday()) + 6) % 7
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	year, week := start.ISOWeek()
	return Period{
		Start: start,
		End:   end,
		Key:   fmt.Sprintf("%04d-W%02d", year, week),
	}
}

// Contains reports whether t falls inside the period, inclusive of both
// boundaries.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}
