package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bfflix-agent/internal/domain"
	"bfflix-agent/internal/infra/metrics"
)

// PostgresCache хранит рекомендации в таблице recommendation_cache.
// Первичный ключ (user_id, query_text) гарантирует не больше одной записи на ключ.
type PostgresCache struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ domain.RecommendationCache = (*PostgresCache)(nil)

// NewPostgresCache создаёт кэш поверх пула.
func NewPostgresCache(pool *pgxpool.Pool) *PostgresCache {
	return &PostgresCache{pool: pool, now: time.Now}
}

// WithClock подменяет источник времени.
func (c *PostgresCache) WithClock(now func() time.Time) *PostgresCache {
	c.now = now
	return c
}

// Get возвращает запись, срок жизни которой ещё не истёк.
func (c *PostgresCache) Get(ctx context.Context, userID, queryText string) (domain.CacheEntry, bool, error) {
	ctx, cancel := connCtxWithParent(ctx)
	defer cancel()

	entry := domain.CacheEntry{UserID: userID, QueryText: queryText}
	var payload []byte
	start := time.Now()
	err := c.pool.QueryRow(ctx, `
SELECT payload, expires_at
FROM recommendation_cache
WHERE user_id = $1 AND query_text = $2 AND expires_at > $3
`, userID, queryText, c.now().UTC()).Scan(&payload, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "cache_get", "recommendation_cache", start, nil)
		return domain.CacheEntry{}, false, nil
	}
	metrics.ObserveNetworkRequest("postgres", "cache_get", "recommendation_cache", start, err)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("%w: postgres get: %w", domain.ErrStoreUnavailable, err)
	}
	entry.Payload = payload
	return entry, true, nil
}

// Put записывает или заменяет запись одной командой.
func (c *PostgresCache) Put(ctx context.Context, userID, queryText string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("postgres cache: ttl must be positive")
	}
	ctx, cancel := connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := c.pool.Exec(ctx, `
INSERT INTO recommendation_cache (user_id, query_text, payload, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, query_text) DO UPDATE
SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, updated_at = now()
`, userID, queryText, payload, c.now().Add(ttl).UTC())
	metrics.ObserveNetworkRequest("postgres", "cache_put", "recommendation_cache", start, err)
	if err != nil {
		return fmt.Errorf("%w: postgres upsert: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// SweepExpired удаляет просроченные записи и возвращает их количество.
// На корректность чтения не влияет: Get фильтрует по expires_at сам.
func (c *PostgresCache) SweepExpired(ctx context.Context) (int64, error) {
	ctx, cancel := connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := c.pool.Exec(ctx, `DELETE FROM recommendation_cache WHERE expires_at <= $1`, c.now().UTC())
	metrics.ObserveNetworkRequest("postgres", "cache_sweep", "recommendation_cache", start, err)
	if err != nil {
		return 0, fmt.Errorf("sweep recommendation cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
