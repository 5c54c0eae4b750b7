package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

const apiKeyColumns = `id, key_id, key_hash, label, description, user_id,
	limit_per_hour, limit_per_day, limit_per_month,
	hour_count, day_count, month_count,
	hour_window_start, day_window_start, month_window_start,
	is_active, expires_at, created_at, last_used_at`

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	var k models.APIKey
	err := row.Scan(
		&k.ID, &k.KeyID, &k.KeyHash, &k.Label, &k.Description, &k.UserID,
		&k.Limits.PerHour, &k.Limits.PerDay, &k.Limits.PerMonth,
		&k.Quota.HourCount, &k.Quota.DayCount, &k.Quota.MonthCount,
		&k.Quota.HourStart, &k.Quota.DayStart, &k.Quota.MonthStart,
		&k.IsActive, &k.ExpiresAt, &k.CreatedAt, &k.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (s *Store) CreateAPIKey(ctx context.Context, k *models.APIKey) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO api_keys (id, key_id, key_hash, label, description, user_id,
				limit_per_hour, limit_per_day, limit_per_month,
				is_active, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			k.ID, k.KeyID, k.KeyHash, k.Label, k.Description, k.UserID,
			k.Limits.PerHour, k.Limits.PerDay, k.Limits.PerMonth,
			k.IsActive, k.ExpiresAt, k.CreatedAt,
		)
		return mapUniqueViolation(err)
	})
}

func (s *Store) GetAPIKeyByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	return scanAPIKey(s.pool.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id))
}

// GetAPIKeyByHash is the hot lookup on every key-authenticated request;
// key_hash carries a unique index.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	return scanAPIKey(s.pool.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, hash))
}

func (s *Store) ListAPIKeysByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

func (s *Store) UpdateAPIKey(ctx context.Context, k *models.APIKey) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE api_keys
		SET label = $2, description = $3,
		    limit_per_hour = $4, limit_per_day = $5, limit_per_month = $6,
		    is_active = $7, expires_at = $8
		WHERE id = $1`,
		k.ID, k.Label, k.Description,
		k.Limits.PerHour, k.Limits.PerDay, k.Limits.PerMonth,
		k.IsActive, k.ExpiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TouchAPIKey(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// incrementQuotaSQL bumps the fixed-window counters in one statement.
// A counter whose window has rolled over restarts at 1; otherwise it
// increments. Window starts are truncated to the window boundary so the
// comparison stays exact.
const incrementQuotaSQL = `
	UPDATE api_keys SET
		hour_count = CASE WHEN date_trunc('hour', hour_window_start) = date_trunc('hour', $2::timestamptz)
			THEN hour_count + 1 ELSE 1 END,
		hour_window_start = date_trunc('hour', $2::timestamptz),
		day_count = CASE WHEN date_trunc('day', day_window_start) = date_trunc('day', $2::timestamptz)
			THEN day_count + 1 ELSE 1 END,
		day_window_start = date_trunc('day', $2::timestamptz),
		month_count = CASE WHEN date_trunc('month', month_window_start) = date_trunc('month', $2::timestamptz)
			THEN month_count + 1 ELSE 1 END,
		month_window_start = date_trunc('month', $2::timestamptz)
	WHERE id = $1`
