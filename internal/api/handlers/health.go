package handlers

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler exposes liveness and readiness. Readiness checks the
// database, the cache, and the upstream Ollama server.
type HealthHandler struct {
	db     Pinger
	cache  Pinger
	ollama Pinger
}

func NewHealthHandler(db, cache, ollama Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, ollama: ollama}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK

	for name, p := range map[string]Pinger{
		"database": h.db,
		"cache":    h.cache,
		"ollama":   h.ollama,
	} {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	WriteJSON(w, status, checks)
}
