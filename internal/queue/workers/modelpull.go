package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/cache"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/ollama"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/queue"
)

// PullStatus is the cached progress record handlers read back for
// "what happened to my pull" queries.
type PullStatus struct {
	Model       string    `json:"model"`
	Status      string    `json:"status"` // pulling, success, failed
	Error       string    `json:"error,omitempty"`
	RequestedBy string    `json:"requested_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func PullStatusKey(model string) string {
	return "model:pull:" + model
}

const pullStatusTTL = 24 * time.Hour

// ModelPullWorker downloads models from the registry via the local
// Ollama server and mirrors progress into the cache. The model list
// cache is invalidated on success so the next list shows the new model.
type ModelPullWorker struct {
	client *ollama.Client
	cache  *cache.Cache
}

func NewModelPullWorker(client *ollama.Client, c *cache.Cache) *ModelPullWorker {
	return &ModelPullWorker{client: client, cache: c}
}

func (w *ModelPullWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ModelPullPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("pulling model", "model", payload.Model)
	w.setStatus(ctx, payload, "pulling", "")

	if err := w.client.PullModel(ctx, payload.Model); err != nil {
		slog.Error("model pull failed", "model", payload.Model, "error", err)
		w.setStatus(ctx, payload, "failed", err.Error())
		return fmt.Errorf("pull %s: %w", payload.Model, err)
	}

	w.setStatus(ctx, payload, "success", "")
	if err := w.cache.Delete(ctx, "models:list"); err != nil {
		slog.Warn("invalidate model list cache", "error", err)
	}
	slog.Info("model pulled", "model", payload.Model)
	return nil
}

func (w *ModelPullWorker) setStatus(ctx context.Context, p queue.ModelPullPayload, status, errMsg string) {
	st := PullStatus{
		Model:       p.Model,
		Status:      status,
		Error:       errMsg,
		RequestedBy: p.RequestedBy,
		UpdatedAt:   time.Now(),
	}
	if err := w.cache.Set(ctx, PullStatusKey(p.Model), st, pullStatusTTL); err != nil {
		slog.Warn("write pull status", "model", p.Model, "error", err)
	}
}
