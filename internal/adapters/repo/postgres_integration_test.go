//go:build integration

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bfflix-agent/internal/domain"
)

func TestListRecentViewingsOrdersAndLimits(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		_, err := testPool.Exec(ctx, `
INSERT INTO viewings (user_id, media_type, media_id, watched_at) VALUES ('u1', 'movie', $1, $2)
`, i, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	_, err := testPool.Exec(ctx, `
INSERT INTO viewings (user_id, media_type, media_id, season_number, episode_number, rating, comment, watched_at)
VALUES ('u1', 'tv', '1399', 2, 5, 4, 'great one', $1), ('u2', 'movie', '603', NULL, NULL, NULL, NULL, $1)
`, base.Add(24*time.Hour))
	require.NoError(t, err)

	records, err := NewPostgres(testPool).ListRecentViewings(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, records, 10)

	first := records[0]
	require.Equal(t, domain.MediaTV, first.MediaType)
	require.Equal(t, "1399", first.MediaID)
	require.NotNil(t, first.SeasonNumber)
	require.Equal(t, 2, *first.SeasonNumber)
	require.Equal(t, 5, *first.EpisodeNumber)
	require.Equal(t, 4, *first.Rating)
	require.Equal(t, "great one", first.Comment)

	require.Equal(t, "11", records[1].MediaID)
	require.Nil(t, records[1].Rating)
	require.Equal(t, "3", records[9].MediaID)
}

func TestListRecentViewingsEmpty(t *testing.T) {
	resetDatabase(t)

	records, err := NewPostgres(testPool).ListRecentViewings(context.Background(), "nobody", 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestListPlatformNamesDistinctSorted(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	_, err := testPool.Exec(ctx, `INSERT INTO streaming_services (name) VALUES ('Netflix'), ('Hulu'), ('Max')`)
	require.NoError(t, err)
	_, err = testPool.Exec(ctx, `
INSERT INTO user_streaming_services (user_id, streaming_service_id)
SELECT 'u1', id FROM streaming_services WHERE name IN ('Netflix', 'Hulu')
`)
	require.NoError(t, err)

	names, err := NewPostgres(testPool).ListPlatformNames(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"Hulu", "Netflix"}, names)

	names, err = NewPostgres(testPool).ListPlatformNames(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestPostgresCacheUpsertAndExpiry(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	c := NewPostgresCache(testPool).WithClock(func() time.Time { return now })
	payload := []byte(`[{"title":"Heat","type":"movie","reason":"crime","matchScore":0.9}]`)

	require.NoError(t, c.Put(ctx, "u1", "q", []byte(`{"v": 1}`), 6*time.Hour))
	require.NoError(t, c.Put(ctx, "u1", "q", payload, 6*time.Hour))

	entry, ok, err := c.Get(ctx, "u1", "q")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, string(payload), string(entry.Payload))
	require.True(t, entry.ExpiresAt.Equal(now.Add(6*time.Hour)))

	var count int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT count(*) FROM recommendation_cache`).Scan(&count))
	require.Equal(t, 1, count)

	_, ok, err = c.Get(ctx, "u1", "q ")
	require.NoError(t, err)
	require.False(t, ok)

	now = now.Add(6 * time.Hour)
	_, ok, err = c.Get(ctx, "u1", "q")
	require.NoError(t, err)
	require.False(t, ok)

	removed, err := c.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}
