package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	AgentPipelineSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_pipeline_seconds",
		Help:    "Время обработки запроса на рекомендации",
		Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 45, 60},
	}, []string{"branch", "status"})

	AgentRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_requests_total",
		Help: "Количество запросов на рекомендации по веткам конвейера",
	}, []string{"branch", "status"})

	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_cache_lookups_total",
		Help: "Обращения к кэшу рекомендаций",
	}, []string{"result"})

	CacheWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_cache_writes_total",
		Help: "Записи в кэш рекомендаций",
	}, []string{"status"})

	CacheSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agent_cache_swept_total",
		Help: "Удалённые просроченные записи кэша",
	})

	ExtractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_extractions_total",
		Help: "Разбор ответов модели по стратегиям",
	}, []string{"strategy"})

	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agent_breaker_state",
		Help: "Состояние автомата отключения: 0 closed, 1 half-open, 2 open",
	}, []string{"name"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		AgentPipelineSeconds,
		AgentRequestsTotal,
		CacheLookupsTotal,
		CacheWritesTotal,
		CacheSweptTotal,
		ExtractionsTotal,
		BreakerState,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// ObserveAgentPipeline записывает длительность и исход запроса на рекомендации.
func ObserveAgentPipeline(branch string, start time.Time, err error) {
	if branch == "" {
		branch = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	AgentPipelineSeconds.WithLabelValues(branch, status).Observe(time.Since(start).Seconds())
	AgentRequestsTotal.WithLabelValues(branch, status).Inc()
}

// IncCacheLookup учитывает результат чтения кэша: hit, miss или error.
func IncCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// IncCacheWrite учитывает запись в кэш.
func IncCacheWrite(status string) {
	CacheWritesTotal.WithLabelValues(status).Inc()
}

// AddCacheSwept учитывает удалённые просроченные записи.
func AddCacheSwept(n int64) {
	if n > 0 {
		CacheSweptTotal.Add(float64(n))
	}
}

// IncExtraction учитывает стратегию, которой был разобран ответ модели.
func IncExtraction(strategy string) {
	ExtractionsTotal.WithLabelValues(strategy).Inc()
}

// SetBreakerState выставляет текущее состояние автомата отключения.
func SetBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}
