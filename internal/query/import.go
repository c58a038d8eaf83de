package query

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/model"
)

// MaxImportRows caps a single import payload
const MaxImportRows = 1000

// Header aliases accepted for the two required import columns
var importHeaderAliases = map[string][]string{
	"recordedAt": {"recordedat", "date", "timestamp", "time"},
	"value":      {"value", "reading", "level"},
}

// Timestamp layouts accepted in import rows
var importTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ImportRow is one cleaned row ready for ingestion
type ImportRow struct {
	RecordedAt time.Time `json:"recordedAt"`
	Value      float64   `json:"value"`
}

// ImportRowError ties a rejected row to its one-based row number
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportPreview is the parse outcome before anything is persisted
type ImportPreview struct {
	Rows   []ImportRow      `json:"rows"`
	Errors []ImportRowError `json:"errors"`
	Total  int              `json:"total"`
}

// ImportService parses uploaded CSV or JSON readings and pushes the
// clean rows through the ingestion pipeline.
type ImportService struct {
	ingester *ingest.Service
	logger   *slog.Logger
}

// NewImportService creates an import service
func NewImportService(ingester *ingest.Service, logger *slog.Logger) *ImportService {
	return &ImportService{ingester: ingester, logger: logger}
}

// Preview parses the payload without persisting anything. Rows fail
// independently; parse errors on the payload itself fail the call.
func (s *ImportService) Preview(data []byte, format string) (*ImportPreview, error) {
	var (
		preview *ImportPreview
		err     error
	)
	switch strings.ToLower(format) {
	case "json":
		preview, err = parseJSONImport(data)
	case "csv", "":
		preview, err = parseCSVImport(data)
	default:
		return nil, apperror.BadRequest("Invalid import format")
	}
	if err != nil {
		return nil, err
	}

	if preview.Total > MaxImportRows {
		return nil, apperror.BadRequest(fmt.Sprintf("Import exceeds maximum of %d rows", MaxImportRows))
	}
	return preview, nil
}

// Save parses the payload and persists the clean rows with
// source=import. Parse-level rejections and ingestion-level rejections
// are merged into the returned batch result.
func (s *ImportService) Save(ctx context.Context, localityID, sensorType string, data []byte, format string) (*ingest.BatchResult, *ImportPreview, error) {
	preview, err := s.Preview(data, format)
	if err != nil {
		return nil, nil, err
	}

	inputs := make([]ingest.ReadingInput, len(preview.Rows))
	for i, row := range preview.Rows {
		inputs[i] = ingest.ReadingInput{
			SensorType: sensorType,
			Value:      row.Value,
			RecordedAt: row.RecordedAt,
			Source:     model.SourceImport,
		}
	}

	result, err := s.ingester.InsertReadings(ctx, localityID, inputs)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Import saved",
		slog.String("locality_id", localityID),
		slog.String("sensor_type", sensorType),
		slog.Int("inserted", result.Inserted),
		slog.Int("rejected_rows", len(preview.Errors)+result.Failed))

	return result, preview, nil
}

func parseCSVImport(data []byte) (*ImportPreview, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperror.BadRequest("Invalid CSV payload")
	}
	if len(records) < 2 {
		return nil, apperror.BadRequest("Sensor reading is empty")
	}

	dateCol, valueCol := matchHeaders(records[0])
	if dateCol < 0 || valueCol < 0 {
		return nil, apperror.BadRequest("Missing recordedAt or value column")
	}

	preview := &ImportPreview{Total: len(records) - 1}
	for i, record := range records[1:] {
		rowNum := i + 2 // header is row 1
		if dateCol >= len(record) || valueCol >= len(record) {
			preview.Errors = append(preview.Errors, ImportRowError{Row: rowNum, Reason: "Missing columns"})
			continue
		}
		row, reason := cleanRow(record[dateCol], record[valueCol])
		if reason != "" {
			preview.Errors = append(preview.Errors, ImportRowError{Row: rowNum, Reason: reason})
			continue
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}

func parseJSONImport(data []byte) (*ImportPreview, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperror.BadRequest("Invalid JSON payload")
	}
	if len(raw) == 0 {
		return nil, apperror.BadRequest("Sensor reading is empty")
	}

	preview := &ImportPreview{Total: len(raw)}
	for i, obj := range raw {
		rowNum := i + 1
		dateRaw, valueRaw := pickFields(obj)
		if dateRaw == "" || valueRaw == "" {
			preview.Errors = append(preview.Errors, ImportRowError{Row: rowNum, Reason: "Missing recordedAt or value field"})
			continue
		}
		row, reason := cleanRow(dateRaw, valueRaw)
		if reason != "" {
			preview.Errors = append(preview.Errors, ImportRowError{Row: rowNum, Reason: reason})
			continue
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}

// matchHeaders maps the CSV header to the required columns using the
// alias table; matching is case-insensitive
func matchHeaders(header []string) (dateCol, valueCol int) {
	dateCol, valueCol = -1, -1
	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		for _, alias := range importHeaderAliases["recordedAt"] {
			if normalized == alias && dateCol < 0 {
				dateCol = i
			}
		}
		for _, alias := range importHeaderAliases["value"] {
			if normalized == alias && valueCol < 0 {
				valueCol = i
			}
		}
	}
	return dateCol, valueCol
}

// pickFields finds the timestamp and value fields of a JSON row by alias
func pickFields(obj map[string]interface{}) (dateRaw, valueRaw string) {
	for key, v := range obj {
		normalized := strings.ToLower(strings.TrimSpace(key))
		for _, alias := range importHeaderAliases["recordedAt"] {
			if normalized == alias && dateRaw == "" {
				dateRaw = fmt.Sprintf("%v", v)
			}
		}
		for _, alias := range importHeaderAliases["value"] {
			if normalized == alias && valueRaw == "" {
				valueRaw = fmt.Sprintf("%v", v)
			}
		}
	}
	return dateRaw, valueRaw
}

func cleanRow(dateRaw, valueRaw string) (ImportRow, string) {
	dateRaw = strings.TrimSpace(dateRaw)
	valueRaw = strings.TrimSpace(valueRaw)

	var recordedAt time.Time
	var parsed bool
	for _, layout := range importTimeLayouts {
		if t, err := time.Parse(layout, dateRaw); err == nil {
			recordedAt = t.UTC()
			parsed = true
			break
		}
	}
	if !parsed {
		return ImportRow{}, "Invalid date format"
	}

	value, err := strconv.ParseFloat(valueRaw, 64)
	if err != nil {
		return ImportRow{}, "Invalid value"
	}

	return ImportRow{RecordedAt: recordedAt, Value: value}, ""
}
