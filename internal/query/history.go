package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/store"
	"github.com/canalwise/irrigation-platform/pkg/redis"
)

// HistoryMeta describes the full cached result set a page was cut from
type HistoryMeta struct {
	SensorType string `json:"sensorType"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Total      int    `json:"total"`
}

// HistoryPage is one pagination window over a cached history result
type HistoryPage struct {
	Data       []model.Reading `json:"data"`
	Meta       HistoryMeta     `json:"meta"`
	HasNext    bool            `json:"hasNext"`
	NextCursor *int            `json:"nextCursor"`
}

// historyEntry is the full result set as stored in the cache
type historyEntry struct {
	Docs []model.Reading `json:"docs"`
	Meta HistoryMeta     `json:"meta"`
}

// HistoryService pages raw readings out of a TTL-bounded cache,
// falling back to storage on a miss. Writes never invalidate entries.
type HistoryService struct {
	readings store.ReadingStore
	cache    redis.Client
	ttl      time.Duration
	pageSize int
	logger   *slog.Logger
}

// NewHistoryService creates a history query service
func NewHistoryService(readings store.ReadingStore, cache redis.Client, ttl time.Duration, pageSize int, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		readings: readings,
		cache:    cache,
		ttl:      ttl,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Fetch returns one page of readings for the range, newest first.
// The full set is cached on first access; subsequent pages for the
// same range are cut from the cached set without touching storage.
func (s *HistoryService) Fetch(ctx context.Context, localityID, sensorType, startDate, endDate string, cursor, limit int) (*HistoryPage, error) {
	if sensorType == "" {
		return nil, apperror.Unprocessable("Missing query parameters")
	}
	dr, err := ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.pageSize
	}
	if cursor < 0 {
		cursor = 0
	}

	key := redis.HistoryCacheKey(localityID, sensorType, dr.FromDate, dr.ToDate)
	entry, err := s.load(ctx, key, localityID, sensorType, dr)
	if err != nil {
		return nil, err
	}

	return paginate(entry, cursor, limit), nil
}

func (s *HistoryService) load(ctx context.Context, key, localityID, sensorType string, dr DateRange) (*historyEntry, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var entry historyEntry
		if err := json.Unmarshal([]byte(cached), &entry); err == nil {
			s.logger.Debug("History cache hit", slog.String("key", key))
			return &entry, nil
		}
		s.logger.Warn("Discarding unreadable cache entry", slog.String("key", key))
	} else if !errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read history cache: %w", err)
	}

	docs, err := s.readings.FindRange(ctx, localityID, sensorType, dr.From, dr.To)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperror.NotFound("No available data for date range in database")
	}

	entry := &historyEntry{
		Docs: docs,
		Meta: HistoryMeta{
			SensorType: sensorType,
			StartDate:  dr.FromDate,
			EndDate:    dr.ToDate,
			Total:      len(docs),
		},
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history cache entry: %w", err)
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		// Serving from storage still works without the cache
		s.logger.Warn("Failed to cache history result",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return entry, nil
}

// paginate cuts [cursor, cursor+limit) out of the full set
func paginate(entry *historyEntry, cursor, limit int) *HistoryPage {
	total := len(entry.Docs)
	if cursor > total {
		cursor = total
	}
	end := cursor + limit
	if end > total {
		end = total
	}

	page := &HistoryPage{
		Data:    entry.Docs[cursor:end],
		Meta:    entry.Meta,
		HasNext: end < total,
	}
	if page.HasNext {
		next := end
		page.NextCursor = &next
	}
	return page
}
