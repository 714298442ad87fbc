package domain

import (
	"context"
	"time"
)

// HistoryProvider отдаёт историю просмотров, самые свежие записи первыми.
type HistoryProvider interface {
	ListRecentViewings(ctx context.Context, userID string, limit int) ([]ViewingRecord, error)
}

// SubscriptionProvider отдаёт названия платформ, на которые подписан пользователь.
type SubscriptionProvider interface {
	ListPlatformNames(ctx context.Context, userID string) ([]string, error)
}

// RecommendationCache хранит рекомендации по ключу (userID, queryText) с ограниченным сроком жизни.
// Просроченные записи Get не возвращает. Ошибки инфраструктуры оборачиваются в ErrStoreUnavailable.
type RecommendationCache interface {
	Get(ctx context.Context, userID, queryText string) (CacheEntry, bool, error)
	Put(ctx context.Context, userID, queryText string, payload []byte, ttl time.Duration) error
}

// ModelBackend отправляет промпт генеративной модели и возвращает сырой текст.
type ModelBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RecommendationService строит рекомендации для пользователя.
type RecommendationService interface {
	Recommend(ctx context.Context, req RecommendationRequest) (RecommendationResponse, error)
}
