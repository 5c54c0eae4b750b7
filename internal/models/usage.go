package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a request attempt ended. Denials carry outcome
// "denied" (policy said no); failures of the delegate or backend carry
// "error".
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// UsageEvent is one append-only audit record per completed request
// attempt, including denials. UserID and APIKeyID are nil when identity
// resolution itself failed.
type UsageEvent struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	APIKeyID         *uuid.UUID `json:"api_key_id,omitempty" db:"api_key_id"`
	Operation        string     `json:"operation" db:"operation"`
	Endpoint         string     `json:"endpoint" db:"endpoint"`
	Method           string     `json:"method" db:"method"`
	Model            string     `json:"model,omitempty" db:"model"`
	PromptTokens     int        `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int        `json:"total_tokens" db:"total_tokens"`
	Outcome          Outcome    `json:"outcome" db:"outcome"`
	StatusCode       int        `json:"status_code" db:"status_code"`
	LatencyMs        int64      `json:"latency_ms" db:"latency_ms"`
	IPAddress        string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent        string     `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// UsageStats aggregates a single user's events over a period.
type UsageStats struct {
	UserID        uuid.UUID      `json:"user_id"`
	Since         time.Time      `json:"since"`
	TotalRequests int64          `json:"total_requests"`
	Succeeded     int64          `json:"succeeded"`
	Denied        int64          `json:"denied"`
	Errored       int64          `json:"errored"`
	TotalTokens   int64          `json:"total_tokens"`
	AvgLatencyMs  float64        `json:"avg_latency_ms"`
	ByModel       map[string]int64 `json:"by_model,omitempty"`
}

// UsageSummary is the admin-wide rollup across all users.
type UsageSummary struct {
	Since         time.Time        `json:"since"`
	TotalRequests int64            `json:"total_requests"`
	Succeeded     int64            `json:"succeeded"`
	Denied        int64            `json:"denied"`
	Errored       int64            `json:"errored"`
	TotalTokens   int64            `json:"total_tokens"`
	ActiveUsers   int64            `json:"active_users"`
	ByOperation   map[string]int64 `json:"by_operation,omitempty"`
}
