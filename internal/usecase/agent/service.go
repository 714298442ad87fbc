package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"bfflix-agent/internal/adapters/extract"
	"bfflix-agent/internal/domain"
	"bfflix-agent/internal/infra/metrics"
)

const (
	defaultHistoryLimit = 10
	defaultCacheTTL     = 6 * time.Hour

	minRecommendations = 3
	maxRecommendations = 5
)

// BreakerConfig настраивает автомат отключения вызовов модели.
type BreakerConfig struct {
	Enabled             bool
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// Config задаёт параметры конвейера рекомендаций.
type Config struct {
	HistoryLimit int
	CacheTTL     time.Duration
	// SingleFlight схлопывает одновременные промахи по одному ключу в один вызов модели.
	// Ведущий запрос выполняется в контексте первого вызвавшего.
	SingleFlight bool
	Breaker      BreakerConfig
}

// Service реализует конвейер: кэш, история, промпт, модель, разбор ответа, запись в кэш.
type Service struct {
	history domain.HistoryProvider
	subs    domain.SubscriptionProvider
	cache   domain.RecommendationCache
	model   domain.ModelBackend
	breaker *gobreaker.CircuitBreaker[string]
	flight  *singleflight.Group
	cfg     Config
	log     zerolog.Logger
	now     func() time.Time
}

var _ domain.RecommendationService = (*Service)(nil)

// NewService создаёт оркестратор рекомендаций.
func NewService(history domain.HistoryProvider, subs domain.SubscriptionProvider, cache domain.RecommendationCache, model domain.ModelBackend, cfg Config, logger zerolog.Logger) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	s := &Service{
		history: history,
		subs:    subs,
		cache:   cache,
		model:   model,
		cfg:     cfg,
		log:     logger,
		now:     time.Now,
	}
	if cfg.SingleFlight {
		s.flight = &singleflight.Group{}
	}
	if cfg.Breaker.Enabled {
		s.breaker = newBreaker(cfg.Breaker, logger)
	}
	return s
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func newBreaker(cfg BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[string] {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "model",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// отменённый клиентом запрос ничего не говорит о здоровье модели
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("agent: circuit breaker state changed")
			metrics.SetBreakerState(name, int(to))
		},
	})
}

// Recommend возвращает рекомендации из кэша либо строит их заново.
func (s *Service) Recommend(ctx context.Context, req domain.RecommendationRequest) (domain.RecommendationResponse, error) {
	if req.UserID == "" {
		return domain.RecommendationResponse{}, domain.ErrEmptyUser
	}
	if req.QueryText == "" {
		return domain.RecommendationResponse{}, domain.ErrEmptyQuery
	}
	start := time.Now()
	log := s.log.With().Str("request_id", requestID(ctx)).Str("user_id", req.UserID).Logger()

	if entry, ok := s.lookup(ctx, log, req); ok {
		metrics.ObserveAgentPipeline("cache_hit", start, nil)
		log.Debug().Msg("agent: served from cache")
		return domain.RecommendationResponse{
			QueryText: req.QueryText,
			Cached:    true,
			Results:   entry.Payload,
		}, nil
	}

	var (
		resp   domain.RecommendationResponse
		branch string
		err    error
	)
	if s.flight == nil {
		resp, branch, err = s.compute(ctx, log, req)
	} else {
		resp, branch, err = s.computeShared(ctx, log, req)
	}
	metrics.ObserveAgentPipeline(branch, start, err)
	if err != nil {
		log.Error().Err(err).Str("branch", branch).Msg("agent: pipeline failed")
		return domain.RecommendationResponse{}, err
	}
	return resp, nil
}

// requestID берёт идентификатор, выданный HTTP-слоем, и генерирует свой, если вызов пришёл не из него.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

type flightResult struct {
	resp   domain.RecommendationResponse
	branch string
}

// computeShared схлопывает одновременные промахи по ключу. Ожидающий вызов
// уходит по своему ctx, не дожидаясь ведущего.
func (s *Service) computeShared(ctx context.Context, log zerolog.Logger, req domain.RecommendationRequest) (domain.RecommendationResponse, string, error) {
	key := req.UserID + "\x00" + req.QueryText
	ch := s.flight.DoChan(key, func() (any, error) {
		resp, branch, err := s.compute(ctx, log, req)
		return flightResult{resp: resp, branch: branch}, err
	})
	select {
	case <-ctx.Done():
		return domain.RecommendationResponse{}, "shared", ctx.Err()
	case r := <-ch:
		res, _ := r.Val.(flightResult)
		if r.Shared {
			log.Debug().Msg("agent: joined in-flight computation")
		}
		if res.branch == "" {
			res.branch = "unknown"
		}
		return res.resp, res.branch, r.Err
	}
}

func (s *Service) lookup(ctx context.Context, log zerolog.Logger, req domain.RecommendationRequest) (domain.CacheEntry, bool) {
	entry, ok, err := s.cache.Get(ctx, req.UserID, req.QueryText)
	if err != nil {
		metrics.IncCacheLookup("error")
		log.Warn().Err(err).Msg("agent: кэш недоступен, считаем промахом")
		return domain.CacheEntry{}, false
	}
	if !ok || !entry.Alive(s.now()) {
		metrics.IncCacheLookup("miss")
		return domain.CacheEntry{}, false
	}
	metrics.IncCacheLookup("hit")
	return entry, true
}

func (s *Service) compute(ctx context.Context, log zerolog.Logger, req domain.RecommendationRequest) (domain.RecommendationResponse, string, error) {
	records, err := s.history.ListRecentViewings(ctx, req.UserID, s.cfg.HistoryLimit)
	if err != nil {
		return domain.RecommendationResponse{}, "load_history", fmt.Errorf("%w: %w", domain.ErrHistoryLoadFailed, err)
	}
	platforms, err := s.subs.ListPlatformNames(ctx, req.UserID)
	if err != nil {
		return domain.RecommendationResponse{}, "load_history", fmt.Errorf("%w: %w", domain.ErrSubscriptionLoadFailed, err)
	}
	if len(records) > s.cfg.HistoryLimit {
		records = records[:s.cfg.HistoryLimit]
	}

	if len(records) == 0 {
		result, err := s.askFollowUp(ctx, platforms)
		if err != nil {
			return domain.RecommendationResponse{}, "fallback", err
		}
		// разговорные ответы не кэшируются: следующим сообщением придёт настоящий запрос
		return domain.RecommendationResponse{
			QueryText: req.QueryText,
			Results:   result.Payload,
		}, "fallback", nil
	}

	prompt := recommendPrompt(platforms, BuildProfile(records), req.QueryText)
	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return domain.RecommendationResponse{}, "recommend", err
	}
	extracted := extract.Extract(raw)
	metrics.IncExtraction(string(extracted.Strategy))
	result := shapeRecommendations(extracted)
	if result.Kind == domain.ResultDegraded {
		log.Warn().Str("strategy", string(extracted.Strategy)).Msg("agent: model output degraded")
	}

	s.store(ctx, log, req, result.Payload)

	basedOn := len(records)
	return domain.RecommendationResponse{
		QueryText:    req.QueryText,
		Cached:       false,
		Results:      result.Payload,
		BasedOnCount: &basedOn,
		Platforms:    platforms,
	}, "recommend", nil
}

func (s *Service) askFollowUp(ctx context.Context, platforms []string) (domain.RecommendationResult, error) {
	raw, err := s.generate(ctx, fallbackPrompt(platforms))
	if err != nil {
		return domain.RecommendationResult{}, err
	}
	extracted := extract.Extract(raw)
	metrics.IncExtraction(string(extracted.Strategy))
	return shapeConversation(extracted), nil
}

// store пишет результат в кэш. Ошибка записи не ломает ответ: пользователь всё равно получит результат.
func (s *Service) store(ctx context.Context, log zerolog.Logger, req domain.RecommendationRequest, payload []byte) {
	if err := s.cache.Put(ctx, req.UserID, req.QueryText, payload, s.cfg.CacheTTL); err != nil {
		metrics.IncCacheWrite("error")
		log.Warn().Err(err).Msg("agent: не удалось записать в кэш")
		return
	}
	metrics.IncCacheWrite("ok")
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	call := func() (string, error) {
		return s.model.Generate(ctx, prompt)
	}
	var (
		text string
		err  error
	)
	if s.breaker != nil {
		text, err = s.breaker.Execute(call)
	} else {
		text, err = call()
	}
	if err != nil {
		if errors.Is(err, domain.ErrModelCallFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrModelCallFailed, err)
	}
	return text, nil
}

type modelRecommendation struct {
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Reason     string  `json:"reason"`
	MatchScore float64 `json:"matchScore"`
}

// shapeRecommendations приводит список к 3–5 позициям с типом movie|tv.
// Всё, что не удалось привести, отдаётся как есть с пометкой degraded.
func shapeRecommendations(res extract.Result) domain.RecommendationResult {
	degraded := domain.RecommendationResult{Kind: domain.ResultDegraded, Payload: res.Value}
	if res.Degraded() {
		return degraded
	}
	var items []modelRecommendation
	if err := json.Unmarshal(res.Value, &items); err != nil {
		return degraded
	}
	out := make([]domain.Recommendation, 0, maxRecommendations)
	for _, item := range items {
		if len(out) == maxRecommendations {
			break
		}
		mediaType := domain.MediaType(strings.ToLower(strings.TrimSpace(item.Type)))
		title := strings.TrimSpace(item.Title)
		if !mediaType.Valid() || title == "" {
			continue
		}
		out = append(out, domain.Recommendation{
			Title:      title,
			MediaType:  mediaType,
			Reason:     strings.TrimSpace(item.Reason),
			MatchScore: item.MatchScore,
		})
	}
	if len(out) < minRecommendations {
		return degraded
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return degraded
	}
	return domain.RecommendationResult{Kind: domain.ResultList, Payload: payload}
}

// shapeConversation заворачивает ответ модели в {"kind":"conversation","message":...}.
func shapeConversation(res extract.Result) domain.RecommendationResult {
	message := conversationMessage(res)
	if message == "" {
		message = defaultFollowUp
	}
	payload, err := json.Marshal(domain.Conversation{Kind: domain.ResultConversation, Message: message})
	if err != nil {
		payload = []byte(`{"kind":"conversation","message":"` + defaultFollowUp + `"}`)
	}
	return domain.RecommendationResult{Kind: domain.ResultConversation, Payload: payload}
}

func conversationMessage(res extract.Result) string {
	if res.Degraded() {
		var carrier extract.RawCarrier
		if err := json.Unmarshal(res.Value, &carrier); err == nil {
			return strings.TrimSpace(carrier.Raw)
		}
		return ""
	}
	var reply struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(res.Value, &reply); err == nil {
		return strings.TrimSpace(reply.Message)
	}
	var text string
	if err := json.Unmarshal(res.Value, &text); err == nil {
		return strings.TrimSpace(text)
	}
	return ""
}
