package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

const insertUsageSQL = `
	INSERT INTO usage_events (id, user_id, api_key_id, operation, endpoint, method, model,
		prompt_tokens, completion_tokens, total_tokens,
		outcome, status_code, latency_ms, ip_address, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// AppendUsage writes one event. When the event belongs to an API key and
// counted toward quota, the event insert and the counter bump commit in
// the same transaction so the counters never drift from the log.
func (s *Store) AppendUsage(ctx context.Context, ev *models.UsageEvent, countQuota bool) error {
	args := []any{
		ev.ID, ev.UserID, ev.APIKeyID, ev.Operation, ev.Endpoint, ev.Method, ev.Model,
		ev.PromptTokens, ev.CompletionTokens, ev.TotalTokens,
		ev.Outcome, ev.StatusCode, ev.LatencyMs, ev.IPAddress, ev.UserAgent, ev.CreatedAt,
	}

	if !countQuota || ev.APIKeyID == nil {
		_, err := s.pool.Exec(ctx, insertUsageSQL, args...)
		return err
	}

	return withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, insertUsageSQL, args...); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, incrementQuotaSQL, *ev.APIKeyID, ev.CreatedAt); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

func (s *Store) ListUsage(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.UsageEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, api_key_id, operation, endpoint, method, model,
			prompt_tokens, completion_tokens, total_tokens,
			outcome, status_code, latency_ms, ip_address, user_agent, created_at
		FROM usage_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.UsageEvent
	for rows.Next() {
		var ev models.UsageEvent
		if err := rows.Scan(
			&ev.ID, &ev.UserID, &ev.APIKeyID, &ev.Operation, &ev.Endpoint, &ev.Method, &ev.Model,
			&ev.PromptTokens, &ev.CompletionTokens, &ev.TotalTokens,
			&ev.Outcome, &ev.StatusCode, &ev.LatencyMs, &ev.IPAddress, &ev.UserAgent, &ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) UserUsageStats(ctx context.Context, userID uuid.UUID, since time.Time) (*models.UsageStats, error) {
	stats := &models.UsageStats{UserID: userID, Since: since, ByModel: map[string]int64{}}

	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE outcome = 'success'),
			count(*) FILTER (WHERE outcome = 'denied'),
			count(*) FILTER (WHERE outcome = 'error'),
			COALESCE(sum(total_tokens), 0),
			COALESCE(avg(latency_ms), 0)
		FROM usage_events
		WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&stats.TotalRequests, &stats.Succeeded, &stats.Denied, &stats.Errored,
		&stats.TotalTokens, &stats.AvgLatencyMs)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT model, count(*)
		FROM usage_events
		WHERE user_id = $1 AND created_at >= $2 AND model <> ''
		GROUP BY model`,
		userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var model string
		var n int64
		if err := rows.Scan(&model, &n); err != nil {
			return nil, err
		}
		stats.ByModel[model] = n
	}
	return stats, rows.Err()
}

func (s *Store) UsageSummary(ctx context.Context, since time.Time) (*models.UsageSummary, error) {
	summary := &models.UsageSummary{Since: since, ByOperation: map[string]int64{}}

	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE outcome = 'success'),
			count(*) FILTER (WHERE outcome = 'denied'),
			count(*) FILTER (WHERE outcome = 'error'),
			COALESCE(sum(total_tokens), 0),
			count(DISTINCT user_id)
		FROM usage_events
		WHERE created_at >= $1`,
		since,
	).Scan(&summary.TotalRequests, &summary.Succeeded, &summary.Denied, &summary.Errored,
		&summary.TotalTokens, &summary.ActiveUsers)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT operation, count(*)
		FROM usage_events
		WHERE created_at >= $1
		GROUP BY operation`,
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var op string
		var n int64
		if err := rows.Scan(&op, &n); err != nil {
			return nil, err
		}
		summary.ByOperation[op] = n
	}
	return summary, rows.Err()
}
