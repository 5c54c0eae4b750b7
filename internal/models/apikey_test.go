package models

import (
	"testing"
	"time"
)

func TestQuotaStateCountSameWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 45, 0, 0, time.UTC)
	q := QuotaState{
		HourCount: 5, HourStart: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		DayCount: 40, DayStart: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		MonthCount: 900, MonthStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	if got := q.Count(WindowHour, now); got != 5 {
		t.Errorf("hour count = %d, want 5", got)
	}
	if got := q.Count(WindowDay, now); got != 40 {
		t.Errorf("day count = %d, want 40", got)
	}
	if got := q.Count(WindowMonth, now); got != 900 {
		t.Errorf("month count = %d, want 900", got)
	}
}

func TestQuotaStateCountResetsAtBoundary(t *testing.T) {
	q := QuotaState{
		HourCount: 5, HourStart: time.Date(2026, 3, 15, 10, 59, 0, 0, time.UTC),
		DayCount: 40, DayStart: time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC),
		MonthCount: 900, MonthStart: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	// One minute into the next hour the hourly counter reads zero; the
	// daily and monthly counters are untouched.
	next := time.Date(2026, 3, 15, 11, 0, 1, 0, time.UTC)
	if got := q.Count(WindowHour, next); got != 0 {
		t.Errorf("hour count after boundary = %d, want 0", got)
	}
	if got := q.Count(WindowDay, next); got != 40 {
		t.Errorf("day count mid-day = %d, want 40", got)
	}

	nextDay := time.Date(2026, 3, 16, 0, 0, 1, 0, time.UTC)
	if got := q.Count(WindowDay, nextDay); got != 0 {
		t.Errorf("day count after midnight = %d, want 0", got)
	}
	if got := q.Count(WindowMonth, nextDay); got != 900 {
		t.Errorf("month count mid-month = %d, want 900", got)
	}

	nextMonth := time.Date(2026, 4, 1, 0, 0, 1, 0, time.UTC)
	if got := q.Count(WindowMonth, nextMonth); got != 0 {
		t.Errorf("month count after rollover = %d, want 0", got)
	}
}

func TestQuotaLimitsEmpty(t *testing.T) {
	if !(QuotaLimits{}).Empty() {
		t.Error("zero limits should be empty")
	}
	if (QuotaLimits{PerDay: 10}).Empty() {
		t.Error("limits with a ceiling should not be empty")
	}
}
