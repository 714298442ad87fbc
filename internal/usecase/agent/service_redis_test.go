package agent

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"bfflix-agent/internal/infra/cache"
)

func TestRecommendRedisHitIsByteIdentical(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	replies := []string{
		// меньше трёх позиций: уходит в кэш как есть, после Compact
		`[{"title": "Tom & Jerry", "type": "tv", "reason": "cat <3 mouse", "matchScore": 0.9}]`,
		"```json\n" + `{"note": "R&B > pop"}` + "\n```",
		"nothing structured & <plain>",
		listReply,
	}
	for i, reply := range replies {
		history := &stubHistory{records: sampleHistory()}
		model := &fakeModel{reply: reply}
		svc := NewService(history, &stubSubs{}, cache.NewRedis(client), model, Config{}, zerolog.Nop())
		req := request(string(rune('a' + i)))

		first, err := svc.Recommend(context.Background(), req)
		require.NoError(t, err)
		require.False(t, first.Cached)

		second, err := svc.Recommend(context.Background(), req)
		require.NoError(t, err)
		require.True(t, second.Cached)
		require.Equal(t, string(first.Results), string(second.Results), "ответ из кэша должен совпадать побайтно")
		require.Equal(t, 1, model.callCount())
	}
}
