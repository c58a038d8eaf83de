package query

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/canalwise/irrigation-platform/internal/analytics"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/pkg/redis"
)

// memCache is an in-memory stand-in for the Redis client
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case string:
		c.entries[key] = v
	case []byte:
		c.entries[key] = string(v)
	}
	c.sets++
	return nil
}

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return "", redis.ErrKeyNotFound
	}
	return v, nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }
func (c *memCache) Close() error                   { return nil }

// stubReadingStore serves canned data and counts storage hits
type stubReadingStore struct {
	rangeResult []model.Reading
	rawBuckets  []analytics.RawBucket
	latest      map[string]*model.Reading
	bySource    []model.Reading
	calls       int
}

func (s *stubReadingStore) Insert(ctx context.Context, r *model.Reading) error { return nil }
func (s *stubReadingStore) Exists(ctx context.Context, localityID, sensorType string, recordedAt time.Time) (bool, error) {
	return false, nil
}
func (s *stubReadingStore) FindPrevious(ctx context.Context, localityID, sensorType string, before time.Time, excludeID string) (*model.Reading, error) {
	return nil, nil
}
func (s *stubReadingStore) FindRange(ctx context.Context, localityID, sensorType string, from, to time.Time) ([]model.Reading, error) {
	s.calls++
	return s.rangeResult, nil
}
func (s *stubReadingStore) Latest(ctx context.Context, localityID, sensorType string) (*model.Reading, error) {
	return s.latest[sensorType], nil
}
func (s *stubReadingStore) AggregateBuckets(ctx context.Context, localityID, sensorType string, from, to time.Time, g analytics.Granularity) ([]analytics.RawBucket, error) {
	s.calls++
	return s.rawBuckets, nil
}
func (s *stubReadingStore) CountBySource(ctx context.Context, localityID, source string, from, to time.Time) (int, error) {
	return len(s.bySource), nil
}
func (s *stubReadingStore) FindBySource(ctx context.Context, localityID, source string, from, to time.Time) ([]model.Reading, error) {
	return s.bySource, nil
}

func discardLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReadings(n int) []model.Reading {
	readings := make([]model.Reading, n)
	base := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		readings[i] = model.Reading{
			ID:         string(rune('a' + i%26)),
			LocalityID: "loc-1",
			SensorType: "humidity",
			Value:      60 + float64(i),
			Unit:       "%",
			RecordedAt: base.Add(-time.Duration(i) * time.Hour),
			Source:     model.SourceMock,
		}
	}
	return readings
}
