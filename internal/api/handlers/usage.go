package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

// UsageStore is the read side of the usage log.
type UsageStore interface {
	ListUsage(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.UsageEvent, error)
	UserUsageStats(ctx context.Context, userID uuid.UUID, since time.Time) (*models.UsageStats, error)
	UsageSummary(ctx context.Context, since time.Time) (*models.UsageSummary, error)
}

type UsageHandler struct {
	store UsageStore
}

func NewUsageHandler(store UsageStore) *UsageHandler {
	return &UsageHandler{store: store}
}

// sinceParam parses ?days=N, defaulting to the last 30 days.
func sinceParam(r *http.Request) time.Time {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 || days > 365 {
		days = 30
	}
	return time.Now().AddDate(0, 0, -days)
}

// Events lists the caller's recent usage events.
func (h *UsageHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	events, err := h.store.ListUsage(r.Context(), principal(r).UserID, limit, offset)
	if err != nil {
		WriteError(w, err)
		return
	}
	if events == nil {
		events = []models.UsageEvent{}
	}
	WriteJSON(w, http.StatusOK, events)
}

// Stats aggregates the caller's own usage.
func (h *UsageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.UserUsageStats(r.Context(), principal(r).UserID, sinceParam(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// Summary is the admin-wide rollup.
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.UsageSummary(r.Context(), sinceParam(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
