package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"bfflix-agent/internal/adapters/repo"
	"bfflix-agent/internal/infra/config"
	"bfflix-agent/internal/infra/db"
	applog "bfflix-agent/internal/infra/log"
	"bfflix-agent/internal/infra/metrics"
	"bfflix-agent/internal/usecase/sweep"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, "sweeper", cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: нет подключения к БД")
	}
	defer pool.Close()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	svc := sweep.NewService(repo.NewPostgresCache(pool), cfg.Sweep.Interval, logger.With().Str("component", "sweep").Logger())
	logger.Info().Dur("interval", cfg.Sweep.Interval).Msg("sweeper: старт")
	svc.Run(ctx)
	logger.Info().Msg("sweeper: остановка")
}
