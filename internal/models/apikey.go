package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a long-lived credential bound to a user. The raw secret is
// returned once at creation; only a SHA-256 hash and a public key ID are
// persisted. The key's effective role is the owner's current role at
// resolution time, never a value cached here.
type APIKey struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	KeyID       string     `json:"key_id" db:"key_id"` // public identifier, safe to display
	KeyHash     string     `json:"-" db:"key_hash"`
	Label       string     `json:"label" db:"label"`
	Description string     `json:"description,omitempty" db:"description"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Limits      QuotaLimits `json:"limits" db:"-"`
	Quota       QuotaState  `json:"-" db:"-"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// Window is a fixed quota interval. Counters reset at the top of each
// hour, day, and month respectively.
type Window string

const (
	WindowHour  Window = "hour"
	WindowDay   Window = "day"
	WindowMonth Window = "month"
)

// QuotaLimits are per-window request ceilings. Zero means unlimited.
type QuotaLimits struct {
	PerHour  int `json:"per_hour" db:"limit_per_hour"`
	PerDay   int `json:"per_day" db:"limit_per_day"`
	PerMonth int `json:"per_month" db:"limit_per_month"`
}

func (l QuotaLimits) Empty() bool {
	return l.PerHour == 0 && l.PerDay == 0 && l.PerMonth == 0
}

// QuotaState holds the rolling counters and the start of the window each
// counter was accumulated in. A counter whose window has passed reads as
// zero; the reset itself happens inside the store's atomic increment.
type QuotaState struct {
	HourCount  int       `db:"hour_count"`
	DayCount   int       `db:"day_count"`
	MonthCount int       `db:"month_count"`
	HourStart  time.Time `db:"hour_window_start"`
	DayStart   time.Time `db:"day_window_start"`
	MonthStart time.Time `db:"month_window_start"`
}

// Count returns the effective counter for a window at the given time,
// treating a counter from an earlier window as already reset.
func (q QuotaState) Count(w Window, now time.Time) int {
	now = now.UTC()
	switch w {
	case WindowHour:
		if q.HourStart.UTC().Truncate(time.Hour).Equal(now.Truncate(time.Hour)) {
			return q.HourCount
		}
	case WindowDay:
		if sameDay(q.DayStart.UTC(), now) {
			return q.DayCount
		}
	case WindowMonth:
		if sameMonth(q.MonthStart.UTC(), now) {
			return q.MonthCount
		}
	}
	return 0
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
