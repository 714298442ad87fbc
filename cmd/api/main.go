package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bfflix-agent/internal/adapters/model"
	"bfflix-agent/internal/adapters/repo"
	"bfflix-agent/internal/domain"
	"bfflix-agent/internal/infra/cache"
	"bfflix-agent/internal/infra/config"
	"bfflix-agent/internal/infra/db"
	httpinfra "bfflix-agent/internal/infra/http"
	applog "bfflix-agent/internal/infra/log"
	"bfflix-agent/internal/infra/metrics"
	"bfflix-agent/internal/usecase/agent"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, "api", cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	recCache, closeCache, err := newCache(ctx, cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: кэш недоступен")
	}
	defer closeCache()

	backend, err := model.FromConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: модель не настроена")
	}

	repoAdapter := repo.NewPostgres(pool)
	svc := agent.NewService(repoAdapter, repoAdapter, recCache, backend, agent.Config{
		HistoryLimit: cfg.Agent.HistoryLimit,
		CacheTTL:     cfg.Agent.CacheTTL,
		SingleFlight: cfg.Agent.SingleFlight,
		Breaker: agent.BreakerConfig{
			Enabled:             cfg.Agent.BreakerEnabled,
			ConsecutiveFailures: cfg.Agent.BreakerFailures,
			OpenTimeout:         cfg.Agent.BreakerOpenTimeout,
		},
	}, logger.With().Str("component", "agent").Logger())

	// запрос может ждать модель весь MODEL_TIMEOUT, поэтому сервер даёт запас сверху
	requestTimeout := cfg.Model.Timeout + 10*time.Second
	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger(), requestTimeout)
	httpinfra.NewAgentHandler(svc, logger.With().Str("component", "agent_http").Logger()).Mount(server.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port), requestTimeout+5*time.Second); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: не удалось корректно остановить сервер")
	}
}

func newCache(ctx context.Context, cfg config.AppConfig, pool *pgxpool.Pool, logger zerolog.Logger) (domain.RecommendationCache, func(), error) {
	switch strings.ToLower(cfg.CacheBackend) {
	case "postgres":
		return repo.NewPostgresCache(pool), func() {}, nil
	case "", "redis":
		if cfg.Redis.Addr == "" {
			return nil, nil, fmt.Errorf("REDIS_ADDR is empty")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			// недоступный кэш не мешает старту: Get превратится в промах
			logger.Warn().Err(err).Msg("api: redis не отвечает")
		}
		return cache.NewRedis(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
}
