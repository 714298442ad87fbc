package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bfflix-agent/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestFormatRecordFullEpisode(t *testing.T) {
	rec := domain.ViewingRecord{
		MediaType:     domain.MediaTV,
		MediaID:       "1399",
		SeasonNumber:  intPtr(2),
		EpisodeNumber: intPtr(5),
		Rating:        intPtr(4),
		Comment:       "great one",
	}

	require.Equal(t, `TV Show id 1399, S2E5, rated 4/5, comment "great one"`, FormatRecord(rec))
}

func TestFormatRecordNormalizesQuotes(t *testing.T) {
	rec := domain.ViewingRecord{MediaType: domain.MediaMovie, MediaID: "603", Comment: `the "red pill" scene`}

	require.Equal(t, `Movie id 603, comment "the 'red pill' scene"`, FormatRecord(rec))
}

func TestFormatRecordSkipsPartialEpisodeTag(t *testing.T) {
	rec := domain.ViewingRecord{MediaType: domain.MediaTV, MediaID: "66732", SeasonNumber: intPtr(3)}

	require.Equal(t, "TV Show id 66732", FormatRecord(rec))
}

func TestFormatRecordSeasonZero(t *testing.T) {
	rec := domain.ViewingRecord{MediaType: domain.MediaTV, MediaID: "1", SeasonNumber: intPtr(0), EpisodeNumber: intPtr(0), Rating: intPtr(1)}

	require.Equal(t, "TV Show id 1, S0E0, rated 1/5", FormatRecord(rec))
}

func TestBuildProfileJoinsWithSemicolons(t *testing.T) {
	records := []domain.ViewingRecord{
		{MediaType: domain.MediaTV, MediaID: "1399", SeasonNumber: intPtr(2), EpisodeNumber: intPtr(5), Rating: intPtr(4), Comment: "great one", WatchedAt: time.Now()},
		{MediaType: domain.MediaMovie, MediaID: "603", Rating: intPtr(5)},
	}

	require.Equal(t, `TV Show id 1399, S2E5, rated 4/5, comment "great one"; Movie id 603, rated 5/5`, BuildProfile(records))
	require.Equal(t, "", BuildProfile(nil))
}

func TestFormatPlatforms(t *testing.T) {
	require.Equal(t, "none set", FormatPlatforms(nil))
	require.Equal(t, "none set", FormatPlatforms([]string{}))
	require.Equal(t, "Hulu, Netflix", FormatPlatforms([]string{"Hulu", "Netflix"}))
}

func TestPromptsCarryInputs(t *testing.T) {
	p := recommendPrompt([]string{"Netflix"}, "Movie id 603", "something like The Matrix")
	require.Contains(t, p, "User platforms (prefer titles likely available here): Netflix.")
	require.Contains(t, p, "Movie id 603")
	require.Contains(t, p, `User query: "something like The Matrix"`)
	require.Contains(t, p, "Return ONLY a JSON array")

	f := fallbackPrompt(nil)
	require.Contains(t, f, "mention their platforms: none set.")
	require.Contains(t, f, "across all platforms")
	require.Contains(t, f, "top list by a specific genre")
}
