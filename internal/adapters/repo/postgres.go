package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bfflix-agent/internal/domain"
	"bfflix-agent/internal/infra/metrics"
)

// Postgres реализует провайдеров истории и подписок на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.HistoryProvider      = (*Postgres)(nil)
	_ domain.SubscriptionProvider = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// ListRecentViewings реализует domain.HistoryProvider.
func (p *Postgres) ListRecentViewings(ctx context.Context, userID string, limit int) ([]domain.ViewingRecord, error) {
	ctx, cancel := connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, user_id, media_type, media_id, season_number, episode_number, rating, comment, watched_at
FROM viewings
WHERE user_id = $1
ORDER BY watched_at DESC, id DESC
LIMIT $2
`, userID, limit)
	metrics.ObserveNetworkRequest("postgres", "list_recent_viewings", "viewings", start, err)
	if err != nil {
		return nil, fmt.Errorf("query viewings: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ViewingRecord, 0, limit)
	for rows.Next() {
		var (
			rec       domain.ViewingRecord
			mediaType string
			comment   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &mediaType, &rec.MediaID, &rec.SeasonNumber, &rec.EpisodeNumber, &rec.Rating, &comment, &rec.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan viewing: %w", err)
		}
		rec.MediaType = domain.MediaType(mediaType)
		if comment.Valid {
			rec.Comment = comment.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewings: %w", err)
	}
	return validViewings(records), nil
}

// validViewings отбрасывает записи, нарушающие инварианты ViewingRecord.
func validViewings(records []domain.ViewingRecord) []domain.ViewingRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.Validate() != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ListPlatformNames реализует domain.SubscriptionProvider.
func (p *Postgres) ListPlatformNames(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT DISTINCT s.name
FROM user_streaming_services us
JOIN streaming_services s ON s.id = us.streaming_service_id
WHERE us.user_id = $1 AND s.name <> ''
ORDER BY s.name
`, userID)
	metrics.ObserveNetworkRequest("postgres", "list_platform_names", "user_streaming_services", start, err)
	if err != nil {
		return nil, fmt.Errorf("query platforms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platforms: %w", err)
	}
	return names, nil
}
