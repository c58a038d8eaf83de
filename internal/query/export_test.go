package query

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/pkg/redis"
)

func seedHistoryCache(t *testing.T, cache *memCache, localityID string, docs []model.Reading) {
	t.Helper()
	entry := historyEntry{
		Docs: docs,
		Meta: HistoryMeta{SensorType: "humidity", StartDate: "2026-06-01", EndDate: "2026-06-30", Total: len(docs)},
	}
	payload, err := json.Marshal(entry)
	require.NoError(t, err)
	key := redis.HistoryCacheKey(localityID, "humidity", "2026-06-01", "2026-06-30")
	require.NoError(t, cache.Set(context.Background(), key, payload, time.Minute))
}

func TestExportRequiresCachedData(t *testing.T) {
	svc := NewExportService(newMemCache(), discardLogger(t))

	_, err := svc.Export(context.Background(), "loc-1", "humidity",
		"2026-06-01", "2026-06-30", CategoryHistory, FormatCSV, 0)
	require.Error(t, err)
	assert.Equal(t, 409, apperror.StatusOf(err))
	assert.Equal(t, "No cached history data available. Please load history data first.", err.Error())

	_, err = svc.Export(context.Background(), "loc-1", "humidity",
		"2026-06-01", "2026-06-30", CategoryAnalytics, FormatCSV, 0)
	require.Error(t, err)
	assert.Equal(t, "No cached analytics data available. Please load analytics data first.", err.Error())
}

func TestExportHistoryCSV(t *testing.T) {
	cache := newMemCache()
	seedHistoryCache(t, cache, "loc-1", []model.Reading{
		{ID: "id-1", Value: 61.5, RecordedAt: time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC)},
		{ID: "id-2", Value: 60, RecordedAt: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
	})
	svc := NewExportService(cache, discardLogger(t))

	result, err := svc.Export(context.Background(), "loc-1", "humidity",
		"2026-06-01", "2026-06-30", CategoryHistory, FormatCSV, 0)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(result.Data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "recordedAt,value,id", lines[0])
	assert.Equal(t, "2026-06-02T08:00:00Z,61.5,id-1", lines[1])
	assert.Equal(t, "2026-06-01T08:00:00Z,60,id-2", lines[2])
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, 2, result.Rows)
}

func TestExportPreviewLimit(t *testing.T) {
	cache := newMemCache()
	seedHistoryCache(t, cache, "loc-1", sampleReadings(20))
	svc := NewExportService(cache, discardLogger(t))

	result, err := svc.Export(context.Background(), "loc-1", "humidity",
		"2026-06-01", "2026-06-30", CategoryHistory, FormatCSV, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Rows)
}

func TestExportHistoryJSON(t *testing.T) {
	cache := newMemCache()
	seedHistoryCache(t, cache, "loc-1", []model.Reading{
		{ID: "id-1", Value: 61.5, RecordedAt: time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC)},
	})
	svc := NewExportService(cache, discardLogger(t))

	result, err := svc.Export(context.Background(), "loc-1", "humidity",
		"2026-06-01", "2026-06-30", CategoryHistory, FormatJSON, 0)
	require.NoError(t, err)
	assert.Equal(t, "application/json", result.ContentType)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "id-1", rows[0]["id"])
	assert.Equal(t, 61.5, rows[0]["value"])
}

func TestCSVFieldEscaping(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"plain", "plain"},
		{"has,comma", `"has,comma"`},
		{`has"quote`, `"has""quote"`},
		{"has\nnewline", "\"has\nnewline\""},
		{"has\rreturn", "\"has\rreturn\""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, csvField(tt.in))
	}
}

func TestExportInvalidCategory(t *testing.T) {
	svc := NewExportService(newMemCache(), discardLogger(t))

	_, err := svc.Export(context.Background(), "loc-1", "humidity",
		"2026-06-01", "2026-06-30", "forecast", FormatCSV, 0)
	require.Error(t, err)
	assert.Equal(t, 400, apperror.StatusOf(err))
}
