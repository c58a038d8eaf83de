package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/canalwise/irrigation-platform/internal/analytics"
	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
	"github.com/canalwise/irrigation-platform/internal/store"
	"github.com/canalwise/irrigation-platform/pkg/redis"
)

// AnomalySummary counts flagged anomalies across the whole series
type AnomalySummary struct {
	Total    int            `json:"total"`
	Critical int            `json:"critical"`
	Warning  int            `json:"warning"`
	Info     int            `json:"info"`
	Types    map[string]int `json:"types"`
}

// AnalyticsMeta describes the computed result set
type AnalyticsMeta struct {
	DateRange   DateRangeMeta `json:"dateRange"`
	Granularity string        `json:"granularity"`
	Unit        string        `json:"unit"`
	SensorType  string        `json:"sensorType"`
	Metric      string        `json:"metric"`
}

// DateRangeMeta echoes the requested range back to the client
type DateRangeMeta struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// AnalyticsResult is the composite analytics payload: the annotated
// bucket series, the fitted trend and the anomaly counts.
type AnalyticsResult struct {
	Series    []analytics.Bucket    `json:"series"`
	Trend     analytics.TrendResult `json:"trend"`
	Anomalies AnomalySummary        `json:"anomalies"`
	Meta      AnalyticsMeta         `json:"meta"`
}

// AnalyticsService runs the bucketing, anomaly and trend pipeline,
// caching whole results per (locality, sensor, range).
type AnalyticsService struct {
	readings store.ReadingStore
	cache    redis.Client
	ttl      time.Duration
	logger   *slog.Logger
}

// NewAnalyticsService creates an analytics query service
func NewAnalyticsService(readings store.ReadingStore, cache redis.Client, ttl time.Duration, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{readings: readings, cache: cache, ttl: ttl, logger: logger}
}

// Fetch returns the analytics result for the range, computing and
// caching it on a miss. Cached results are returned verbatim.
func (s *AnalyticsService) Fetch(ctx context.Context, localityID, sensorType, startDate, endDate string) (*AnalyticsResult, error) {
	if sensorType == "" {
		return nil, apperror.Unprocessable("Missing query parameters")
	}
	dr, err := ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	key := redis.AnalyticsCacheKey(localityID, sensorType, dr.FromDate, dr.ToDate)
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var result AnalyticsResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			s.logger.Debug("Analytics cache hit", slog.String("key", key))
			return &result, nil
		}
		s.logger.Warn("Discarding unreadable cache entry", slog.String("key", key))
	} else if !errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read analytics cache: %w", err)
	}

	result, err := s.compute(ctx, localityID, sensorType, dr)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analytics cache entry: %w", err)
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn("Failed to cache analytics result",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return result, nil
}

func (s *AnalyticsService) compute(ctx context.Context, localityID, sensorType string, dr DateRange) (*AnalyticsResult, error) {
	granularity := analytics.GranularityForRange(dr.From, dr.To)

	raw, err := s.readings.AggregateBuckets(ctx, localityID, sensorType, dr.From, dr.To, granularity)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, apperror.NotFound("No available data for date range in database")
	}

	series := make([]analytics.Bucket, len(raw))
	for i, rb := range raw {
		series[i] = analytics.BuildBucket(rb)
		series[i].Anomalies = analytics.DetectIntraBucketAnomalies(series[i], sensorType)
	}
	series = analytics.AnnotateSeries(series, sensorType, granularity)

	trend := analytics.SimpleLR(series, sensorType)

	unit := ""
	label := sensorType
	if cfg, ok := sensor.Get(sensorType); ok {
		unit = cfg.Unit
		label = cfg.Label
	}

	return &AnalyticsResult{
		Series:    series,
		Trend:     trend,
		Anomalies: summarizeAnomalies(series),
		Meta: AnalyticsMeta{
			DateRange:   DateRangeMeta{StartDate: dr.FromDate, EndDate: dr.ToDate},
			Granularity: string(granularity),
			Unit:        unit,
			SensorType:  label,
			Metric:      "average",
		},
	}, nil
}

func summarizeAnomalies(series []analytics.Bucket) AnomalySummary {
	summary := AnomalySummary{Types: map[string]int{}}
	for _, b := range series {
		for _, a := range b.Anomalies {
			summary.Total++
			summary.Types[a.Type]++
			switch a.Severity {
			case model.SeverityCritical:
				summary.Critical++
			case model.SeverityWarning:
				summary.Warning++
			case model.SeverityInfo:
				summary.Info++
			}
		}
	}
	return summary
}
