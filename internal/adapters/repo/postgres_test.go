package repo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bfflix-agent/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestValidViewingsDropsBrokenRows(t *testing.T) {
	records := []domain.ViewingRecord{
		{ID: 1, MediaType: domain.MediaTV, MediaID: "1399", SeasonNumber: intPtr(2), EpisodeNumber: intPtr(5)},
		{ID: 2, MediaType: domain.MediaTV, MediaID: "1400", EpisodeNumber: intPtr(3)},
		{ID: 3, MediaType: domain.MediaMovie, MediaID: "603", Rating: intPtr(7)},
		{ID: 4, MediaType: "anime", MediaID: "1"},
		{ID: 5, MediaType: domain.MediaMovie, MediaID: "604", Rating: intPtr(5)},
	}

	got := validViewings(records)

	require.Len(t, got, 2)
	require.EqualValues(t, 1, got[0].ID)
	require.EqualValues(t, 5, got[1].ID)
}

func TestValidViewingsEmpty(t *testing.T) {
	require.Empty(t, validViewings(nil))
}
