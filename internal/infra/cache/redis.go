package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"bfflix-agent/internal/domain"
	"bfflix-agent/internal/infra/metrics"
)

const defaultPrefix = "agent:rec"

// RedisCache реализует domain.RecommendationCache через Redis.
// Одна запись — один ключ, поэтому SET заменяет её целиком и читатель не увидит смесь старой и новой.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

var _ domain.RecommendationCache = (*RedisCache)(nil)

// NewRedis создаёт кэш.
func NewRedis(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client, prefix: defaultPrefix, now: time.Now}
}

// WithClock подменяет источник времени.
func (c *RedisCache) WithClock(now func() time.Time) *RedisCache {
	c.now = now
	return c
}

// envelope хранит payload строкой: Get обязан вернуть ровно записанные байты,
// а json.RawMessage при маршалинге экранирует & < >.
type envelope struct {
	UserID    string    `json:"userId"`
	QueryText string    `json:"queryText"`
	Payload   string    `json:"payload"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Key строит ключ записи. Текст запроса хэшируется целиком, без нормализации,
// так что запросы, отличающиеся хотя бы пробелом, попадают в разные ключи.
func Key(prefix, userID, queryText string) string {
	sum := sha256.Sum256([]byte(queryText))
	return fmt.Sprintf("%s:%s:%s", prefix, userID, hex.EncodeToString(sum[:]))
}

// Get возвращает живую запись, если она есть.
func (c *RedisCache) Get(ctx context.Context, userID, queryText string) (domain.CacheEntry, bool, error) {
	start := time.Now()
	data, err := c.client.Get(ctx, Key(c.prefix, userID, queryText)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "cache_get", "recommendation_cache", start, nil)
		return domain.CacheEntry{}, false, nil
	}
	metrics.ObserveNetworkRequest("redis", "cache_get", "recommendation_cache", start, err)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("%w: redis get: %w", domain.ErrStoreUnavailable, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// битая запись равносильна её отсутствию, следующий Put её перезапишет
		return domain.CacheEntry{}, false, nil
	}
	if env.UserID != userID || env.QueryText != queryText {
		return domain.CacheEntry{}, false, nil
	}
	entry := domain.CacheEntry{
		UserID:    env.UserID,
		QueryText: env.QueryText,
		Payload:   []byte(env.Payload),
		ExpiresAt: env.ExpiresAt,
	}
	if !entry.Alive(c.now()) {
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put записывает или заменяет запись по ключу (userID, queryText).
func (c *RedisCache) Put(ctx context.Context, userID, queryText string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("redis cache: ttl must be positive")
	}
	data, err := json.Marshal(envelope{
		UserID:    userID,
		QueryText: queryText,
		Payload:   string(payload),
		ExpiresAt: c.now().Add(ttl).UTC(),
	})
	if err != nil {
		return fmt.Errorf("redis cache: marshal entry: %w", err)
	}
	start := time.Now()
	err = c.client.Set(ctx, Key(c.prefix, userID, queryText), data, ttl).Err()
	metrics.ObserveNetworkRequest("redis", "cache_put", "recommendation_cache", start, err)
	if err != nil {
		return fmt.Errorf("%w: redis set: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
