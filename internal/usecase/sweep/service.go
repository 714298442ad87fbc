package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bfflix-agent/internal/infra/metrics"
)

// ExpiredSweeper удаляет просроченные записи кэша.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Service периодически чистит кэш рекомендаций.
type Service struct {
	store    ExpiredSweeper
	interval time.Duration
	log      zerolog.Logger
}

// NewService создаёт сервис очистки.
func NewService(store ExpiredSweeper, interval time.Duration, logger zerolog.Logger) *Service {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Service{store: store, interval: interval, log: logger}
}

// SweepOnce выполняет один проход очистки.
func (s *Service) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	metrics.AddCacheSwept(n)
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("sweep: просроченные записи удалены")
	}
	return n, nil
}

// Run чистит кэш сразу и затем раз в interval, пока не отменён ctx.
// Ошибка одного прохода логируется и не останавливает цикл.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("sweep: ошибка очистки кэша")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
