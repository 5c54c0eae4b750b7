package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

// EventStore is the slice of persistence the recorder needs.
type EventStore interface {
	AppendUsage(ctx context.Context, ev *models.UsageEvent, countQuota bool) error
}

// Meta is mutable per-request metadata. It is placed in the request
// context before the handler runs so the handler can report the model
// and token counts it learned from the backend response.
type Meta struct {
	Model            string
	PromptTokens     int
	CompletionTokens int

	// StreamFailed marks an upstream failure that happened after the
	// response status was already written, so the recorded outcome can
	// still reflect it.
	StreamFailed bool
}

func (m *Meta) TotalTokens() int { return m.PromptTokens + m.CompletionTokens }

type metaCtxKey struct{}

func WithMeta(ctx context.Context, m *Meta) context.Context {
	return context.WithValue(ctx, metaCtxKey{}, m)
}

func MetaFrom(ctx context.Context) (*Meta, bool) {
	m, ok := ctx.Value(metaCtxKey{}).(*Meta)
	return m, ok
}

// Entry is everything the recorder needs to persist one event.
type Entry struct {
	UserID     *uuid.UUID
	APIKeyID   *uuid.UUID
	Operation  string
	Endpoint   string
	Method     string
	Meta       *Meta
	Outcome    models.Outcome
	StatusCode int
	Latency    time.Duration
	IPAddress  string
	UserAgent  string
}

// Recorder appends usage events. Recording is off the request's critical
// path for correctness: a failed write is logged, never surfaced.
type Recorder struct {
	store EventStore
	log   *slog.Logger
	now   func() time.Time
}

func NewRecorder(store EventStore, log *slog.Logger) *Recorder {
	return &Recorder{store: store, log: log, now: time.Now}
}

// Record persists the entry. Successful key-authenticated requests count
// toward the key's quota windows; denials and errors are logged but do
// not consume quota.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	ev := &models.UsageEvent{
		ID:         uuid.New(),
		UserID:     e.UserID,
		APIKeyID:   e.APIKeyID,
		Operation:  e.Operation,
		Endpoint:   e.Endpoint,
		Method:     e.Method,
		Outcome:    e.Outcome,
		StatusCode: e.StatusCode,
		LatencyMs:  e.Latency.Milliseconds(),
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		CreatedAt:  r.now(),
	}
	if e.Meta != nil {
		ev.Model = e.Meta.Model
		ev.PromptTokens = e.Meta.PromptTokens
		ev.CompletionTokens = e.Meta.CompletionTokens
		ev.TotalTokens = e.Meta.TotalTokens()
	}

	countQuota := e.Outcome == models.OutcomeSuccess && e.APIKeyID != nil

	if err := r.store.AppendUsage(ctx, ev, countQuota); err != nil {
		r.log.Error("append usage event failed",
			"operation", e.Operation,
			"outcome", string(e.Outcome),
			"error", err)
	}
}
