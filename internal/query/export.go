package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/pkg/redis"
)

// Export categories and formats
const (
	CategoryHistory   = "history"
	CategoryAnalytics = "analytics"

	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportResult is a rendered export ready to send or save
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders cached query results to CSV or JSON. It never
// queries storage: exporting a range requires that the same range was
// loaded through the history or analytics endpoint first.
type ExportService struct {
	cache  redis.Client
	logger *slog.Logger
}

// NewExportService creates an export service over the shared cache
func NewExportService(cache redis.Client, logger *slog.Logger) *ExportService {
	return &ExportService{cache: cache, logger: logger}
}

// Export renders the cached result for the exact range key. A preview
// limit > 0 caps the number of rendered rows.
func (s *ExportService) Export(ctx context.Context, localityID, sensorType, startDate, endDate, category, format string, previewLimit int) (*ExportResult, error) {
	dr, err := ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	var key string
	switch category {
	case CategoryHistory:
		key = redis.HistoryCacheKey(localityID, sensorType, dr.FromDate, dr.ToDate)
	case CategoryAnalytics:
		key = redis.AnalyticsCacheKey(localityID, sensorType, dr.FromDate, dr.ToDate)
	default:
		return nil, apperror.BadRequest("Invalid export category")
	}

	cached, err := s.cache.Get(ctx, key)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, apperror.Conflict(fmt.Sprintf(
			"No cached %s data available. Please load %s data first.", category, category))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read export cache: %w", err)
	}

	rows, err := exportRows(category, []byte(cached))
	if err != nil {
		return nil, err
	}
	if previewLimit > 0 && len(rows) > previewLimit {
		rows = rows[:previewLimit]
	}

	result := &ExportResult{Rows: len(rows)}
	base := fmt.Sprintf("%s_%s_%s_%s", category, sensorType, dr.FromDate, dr.ToDate)

	switch format {
	case FormatJSON:
		payload, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
		result.Data = payload
		result.ContentType = "application/json"
		result.Filename = base + ".json"
	case FormatCSV, "":
		result.Data = []byte(renderCSV(exportColumns(category), rows))
		result.ContentType = "text/csv"
		result.Filename = base + ".csv"
	default:
		return nil, apperror.BadRequest("Invalid export format")
	}

	s.logger.Debug("Rendered export",
		slog.String("key", key),
		slog.String("format", format),
		slog.Int("rows", result.Rows))
	return result, nil
}

func exportColumns(category string) []string {
	if category == CategoryAnalytics {
		return []string{"timestamp", "total", "avg", "min", "max", "stdDev", "count"}
	}
	return []string{"recordedAt", "value", "id"}
}

// exportRows flattens a cached entry into ordered column maps
func exportRows(category string, cached []byte) ([]map[string]interface{}, error) {
	if category == CategoryAnalytics {
		var result AnalyticsResult
		if err := json.Unmarshal(cached, &result); err != nil {
			return nil, fmt.Errorf("failed to decode cached analytics entry: %w", err)
		}
		rows := make([]map[string]interface{}, len(result.Series))
		for i, b := range result.Series {
			rows[i] = map[string]interface{}{
				"timestamp": b.Timestamp.UTC().Format(time.RFC3339),
				"total":     b.Total,
				"avg":       b.Avg,
				"min":       b.Min,
				"max":       b.Max,
				"stdDev":    b.StdDev,
				"count":     b.Count,
			}
		}
		return rows, nil
	}

	var entry historyEntry
	if err := json.Unmarshal(cached, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cached history entry: %w", err)
	}
	rows := make([]map[string]interface{}, len(entry.Docs))
	for i, r := range entry.Docs {
		rows[i] = map[string]interface{}{
			"recordedAt": r.RecordedAt.UTC().Format(time.RFC3339),
			"value":      r.Value,
			"id":         r.ID,
		}
	}
	return rows, nil
}

// renderCSV renders rows with the quoting rules the downstream tooling
// expects: quotes doubled, a field quoted only when it contains a
// comma, quote, CR or LF.
func renderCSV(columns []string, rows []map[string]interface{}) string {
	var sb strings.Builder

	for i, col := range columns {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(csvField(col))
	}
	sb.WriteByte('\n')

	for _, row := range rows {
		for i, col := range columns {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(csvField(csvValue(row[col])))
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func csvValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
