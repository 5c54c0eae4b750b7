package usage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

type captureStore struct {
	events     []models.UsageEvent
	countQuota []bool
}

func (c *captureStore) AppendUsage(_ context.Context, ev *models.UsageEvent, countQuota bool) error {
	c.events = append(c.events, *ev)
	c.countQuota = append(c.countQuota, countQuota)
	return nil
}

func TestRecordFillsEventFromMeta(t *testing.T) {
	cs := &captureStore{}
	rec := NewRecorder(cs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	userID := uuid.New()
	keyID := uuid.New()
	rec.Record(context.Background(), Entry{
		UserID:    &userID,
		APIKeyID:  &keyID,
		Operation: "generate",
		Endpoint:  "/api/generate",
		Method:    "POST",
		Meta: &Meta{
			Model:            "llama3",
			PromptTokens:     7,
			CompletionTokens: 3,
		},
		Outcome:    models.OutcomeSuccess,
		StatusCode: 200,
		Latency:    1500 * time.Millisecond,
	})

	if len(cs.events) != 1 {
		t.Fatalf("events = %d, want 1", len(cs.events))
	}
	ev := cs.events[0]
	if ev.Model != "llama3" || ev.TotalTokens != 10 {
		t.Errorf("event = model %q tokens %d, want llama3/10", ev.Model, ev.TotalTokens)
	}
	if ev.LatencyMs != 1500 {
		t.Errorf("latency = %dms, want 1500", ev.LatencyMs)
	}
	if !cs.countQuota[0] {
		t.Error("successful key event should count toward quota")
	}
}

func TestRecordSkipsQuotaForDenialsAndTokens(t *testing.T) {
	cs := &captureStore{}
	rec := NewRecorder(cs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	userID := uuid.New()
	keyID := uuid.New()

	// Denied key request: logged, no quota.
	rec.Record(context.Background(), Entry{
		UserID: &userID, APIKeyID: &keyID,
		Operation: "generate", Outcome: models.OutcomeDenied, StatusCode: 429,
	})
	// Successful token request: logged, no key to count against.
	rec.Record(context.Background(), Entry{
		UserID:    &userID,
		Operation: "generate", Outcome: models.OutcomeSuccess, StatusCode: 200,
	})

	if len(cs.events) != 2 {
		t.Fatalf("events = %d, want 2", len(cs.events))
	}
	for i, counted := range cs.countQuota {
		if counted {
			t.Errorf("event %d counted toward quota, want none", i)
		}
	}
}
