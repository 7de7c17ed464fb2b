package core

import (
	"testing"
	"time"
)

func TestMonthlyPeriod(t *testing.T) {
	ref := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	p := PeriodFor(MonthlyPeriod, ref)

	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 31, 23, 59, 59, 999000000, time.UTC)
	if !p.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", p.Start, wantStart)
	}
	if !p.End.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", p.End, wantEnd)
	}
	if p.Key != "2024-03" {
		t.Fatalf("key = %q, want 2024-03", p.Key)
	}
	if !p.Contains(ref) {
		t.Fatal("reference date should fall inside its own period")
	}
}

func TestMonthlyPeriodBoundaries(t *testing.T) {
	cases := []struct {
		ref     time.Time
		lastDay int
		key     string
	}{
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29, "2024-02"}, // leap year
		{time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), 28, "2023-02"},
		{time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), 31, "2024-12"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 31, "2024-01"},
	}
	for i, tc := range cases {
		p := PeriodFor(MonthlyPeriod, tc.ref)
		if p.Start.Day() != 1 {
			t.Fatalf("case %d: start day = %d, want 1", i, p.Start.Day())
		}
		if p.End.Day() != tc.lastDay {
			t.Fatalf("case %d: end day = %d, want %d", i, p.End.Day(), tc.lastDay)
		}
		if p.Key != tc.key {
			t.Fatalf("case %d: key = %q, want %q", i, p.Key, tc.key)
		}
		if !p.Contains(tc.ref) {
			t.Fatalf("case %d: ref outside period", i)
		}
	}
}

func TestWeeklyPeriod(t *testing.T) {
	// 2024-03-15 is a Friday; the week runs Mon 11th through Sun 17th.
	ref := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	p := PeriodFor(WeeklyPeriod, ref)

	if p.Start.Weekday() != time.Monday {
		t.Fatalf("start weekday = %v, want Monday", p.Start.Weekday())
	}
	if p.End.Weekday() != time.Sunday {
		t.Fatalf("end weekday = %v, want Sunday", p.End.Weekday())
	}
	if p.Start.Day() != 11 || p.End.Day() != 17 {
		t.Fatalf("range = [%v, %v], want Mar 11-17", p.Start, p.End)
	}
	if p.Key != "2024-W11" {
		t.Fatalf("key = %q, want 2024-W11", p.Key)
	}
}

func TestWeeklyPeriodSpansYears(t *testing.T) {
	// Dec 31 2024 is a Tuesday; its week starts Mon Dec 30 and ends
	// Sun Jan 5 2025.
	ref := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	p := PeriodFor(WeeklyPeriod, ref)

	if p.Start.Month() != time.December || p.Start.Day() != 30 {
		t.Fatalf("start = %v, want Dec 30", p.Start)
	}
	if p.End.Year() != 2025 || p.End.Month() != time.January || p.End.Day() != 5 {
		t.Fatalf("end = %v, want Jan 5 2025", p.End)
	}
	// ISO week 1 of 2025 starts Dec 30 2024.
	if p.Key != "2025-W01" {
		t.Fatalf("key = %q, want 2025-W01", p.Key)
	}
	if !p.Contains(ref) {
		t.Fatal("ref outside period")
	}
}

func TestWeeklyPeriodAnyReferenceContained(t *testing.T) {
	// Walk a few months of days and check the invariants hold for each.
	day := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		p := PeriodFor(WeeklyPeriod, day)
		if p.Start.Weekday() != time.Monday {
			t.Fatalf("%v: start not Monday", day)
		}
		if !p.Contains(day) {
			t.Fatalf("%v: outside [%v, %v]", day, p.Start, p.End)
		}
		if p.End.Sub(p.Start) >= 7*24*time.Hour {
			t.Fatalf("%v: period longer than a week", day)
		}
		day = day.AddDate(0, 0, 1)
	}
}

func TestPeriodKindValidate(t *testing.T) {
	if err := MonthlyPeriod.Validate(); err != nil {
		t.Fatalf("monthly should validate: %v", err)
	}
	if err := WeeklyPeriod.Validate(); err != nil {
		t.Fatalf("weekly should validate: %v", err)
	}
	if err := PeriodKind("quarterly").Validate(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
