package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/auth"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/cache"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/ollama"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/queue"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/queue/workers"
)

const (
	modelListCacheKey = "models:list"
	modelListCacheTTL = 30 * time.Second
)

// ModelHandler manages the model catalog: list and show proxy straight
// through, pull is queued on the worker, delete removes locally.
type ModelHandler struct {
	client *ollama.Client
	cache  *cache.Cache
	queue  *queue.Client
}

func NewModelHandler(client *ollama.Client, c *cache.Cache, q *queue.Client) *ModelHandler {
	return &ModelHandler{client: client, cache: c, queue: q}
}

func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	var cached []ollama.ModelInfo
	if err := h.cache.Get(r.Context(), modelListCacheKey, &cached); err == nil {
		WriteJSON(w, http.StatusOK, cached)
		return
	}

	models, err := h.client.ListModels(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if models == nil {
		models = []ollama.ModelInfo{}
	}

	// Stale-by-30s is acceptable for the catalog.
	_ = h.cache.Set(r.Context(), modelListCacheKey, models, modelListCacheTTL)
	WriteJSON(w, http.StatusOK, models)
}

func (h *ModelHandler) Show(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := h.client.ShowModel(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(info)
}

type pullRequest struct {
	Model string `json:"model" validate:"required"`
}

// Pull queues an async download and answers immediately; progress is
// polled via PullStatus.
func (h *ModelHandler) Pull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := decodeValid(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	pr := principal(r)
	if err := h.queue.EnqueueModelPull(queue.ModelPullPayload{
		Model:       req.Model,
		RequestedBy: pr.UserID.String(),
	}); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"model":  req.Model,
		"status": "queued",
	})
}

func (h *ModelHandler) PullStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var st workers.PullStatus
	err := h.cache.Get(r.Context(), workers.PullStatusKey(name), &st)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			WriteError(w, auth.ErrNotFound)
			return
		}
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *ModelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.client.DeleteModel(r.Context(), name); err != nil {
		WriteError(w, err)
		return
	}
	_ = h.cache.Delete(r.Context(), modelListCacheKey)
	w.WriteHeader(http.StatusNoContent)
}
