package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// MediaType различает фильмы и сериалы.
type MediaType string

const (
	// MediaMovie — фильм.
	MediaMovie MediaType = "movie"
	// MediaTV — сериал.
	MediaTV MediaType = "tv"
)

// Valid сообщает, является ли значение известным типом медиа.
func (m MediaType) Valid() bool {
	return m == MediaMovie || m == MediaTV
}

// ViewingRecord описывает одну запись истории просмотров пользователя.
type ViewingRecord struct {
	ID            int64
	UserID        string
	MediaType     MediaType
	MediaID       string
	SeasonNumber  *int
	EpisodeNumber *int
	Rating        *int
	Comment       string
	WatchedAt     time.Time
}

var (
	errEpisodeWithoutSeason = errors.New("episode number requires season number")
	errNegativeEpisode      = errors.New("season and episode numbers must be non-negative")
	errRatingRange          = errors.New("rating must be within 1..5")
	errUnknownMediaType     = errors.New("unknown media type")
)

// Validate проверяет инварианты записи просмотра.
func (v ViewingRecord) Validate() error {
	if !v.MediaType.Valid() {
		return errUnknownMediaType
	}
	if v.EpisodeNumber != nil && v.SeasonNumber == nil {
		return errEpisodeWithoutSeason
	}
	if (v.SeasonNumber != nil && *v.SeasonNumber < 0) || (v.EpisodeNumber != nil && *v.EpisodeNumber < 0) {
		return errNegativeEpisode
	}
	if v.Rating != nil && (*v.Rating < 1 || *v.Rating > 5) {
		return errRatingRange
	}
	return nil
}

// SubscribedPlatform связывает пользователя со стриминговой платформой.
type SubscribedPlatform struct {
	UserID       string
	PlatformName string
}

// CacheEntry хранит ранее вычисленный набор рекомендаций.
type CacheEntry struct {
	UserID    string
	QueryText string
	Payload   json.RawMessage
	ExpiresAt time.Time
}

// Alive сообщает, можно ли ещё отдавать запись на момент now.
func (e CacheEntry) Alive(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// ResultKind описывает форму результата, которую построил конвейер.
type ResultKind string

const (
	// ResultConversation — уточняющий вопрос пользователю.
	ResultConversation ResultKind = "conversation"
	// ResultList — список рекомендаций.
	ResultList ResultKind = "list"
	// ResultDegraded — всё, что удалось достать из ответа модели, без проверки формы.
	ResultDegraded ResultKind = "degraded"
)

// Recommendation — одна позиция списка рекомендаций.
type Recommendation struct {
	Title      string    `json:"title"`
	MediaType  MediaType `json:"type"`
	Reason     string    `json:"reason"`
	MatchScore float64   `json:"matchScore"`
}

// Conversation — разговорный ответ для пользователей без истории.
type Conversation struct {
	Kind    ResultKind `json:"kind"`
	Message string     `json:"message"`
}

// RecommendationResult содержит готовый к отдаче JSON и его форму.
type RecommendationResult struct {
	Kind    ResultKind
	Payload json.RawMessage
}

// RecommendationRequest — вход конвейера.
type RecommendationRequest struct {
	UserID    string
	QueryText string
}

// RecommendationResponse — выход конвейера.
type RecommendationResponse struct {
	QueryText    string          `json:"queryText"`
	Cached       bool            `json:"cached"`
	Results      json.RawMessage `json:"results"`
	BasedOnCount *int            `json:"basedOnCount,omitempty"`
	Platforms    []string        `json:"platforms,omitempty"`
}
