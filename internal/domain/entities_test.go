package domain

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestViewingRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  ViewingRecord
		wantErr bool
	}{
		{name: "movie without extras", record: ViewingRecord{MediaType: MediaMovie, MediaID: "603"}},
		{name: "episode with season", record: ViewingRecord{MediaType: MediaTV, MediaID: "1399", SeasonNumber: intPtr(2), EpisodeNumber: intPtr(5)}},
		{name: "season only", record: ViewingRecord{MediaType: MediaTV, MediaID: "1399", SeasonNumber: intPtr(0)}},
		{name: "episode without season", record: ViewingRecord{MediaType: MediaTV, MediaID: "1399", EpisodeNumber: intPtr(5)}, wantErr: true},
		{name: "negative season", record: ViewingRecord{MediaType: MediaTV, MediaID: "1399", SeasonNumber: intPtr(-1)}, wantErr: true},
		{name: "rating too high", record: ViewingRecord{MediaType: MediaMovie, MediaID: "603", Rating: intPtr(6)}, wantErr: true},
		{name: "rating zero", record: ViewingRecord{MediaType: MediaMovie, MediaID: "603", Rating: intPtr(0)}, wantErr: true},
		{name: "unknown type", record: ViewingRecord{MediaType: "anime", MediaID: "1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCacheEntryAlive(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	entry := CacheEntry{ExpiresAt: now.Add(time.Minute)}
	if !entry.Alive(now) {
		t.Fatalf("ожидали живую запись до expiresAt")
	}
	if entry.Alive(now.Add(time.Minute)) {
		t.Fatalf("запись с now == expiresAt должна считаться просроченной")
	}
}
