package query

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canalwise/irrigation-platform/internal/alerting"
	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/model"
)

func newImportService(t *testing.T) *ImportService {
	logger := discardLogger(t)
	store := &stubReadingStore{}
	engine := alerting.NewEngine(store, &noopAlertStore{}, nil, logger)
	return NewImportService(ingest.NewService(store, engine, logger), logger)
}

type noopAlertStore struct{}

func (noopAlertStore) Insert(ctx context.Context, a *model.Alert) error { return nil }
func (noopAlertStore) ListByLocality(ctx context.Context, localityID string, limit int) ([]model.Alert, error) {
	return nil, nil
}
func (noopAlertStore) Acknowledge(ctx context.Context, id, by string, at time.Time) (*model.Alert, error) {
	return nil, nil
}

func TestImportPreviewCSV(t *testing.T) {
	svc := newImportService(t)

	data := []byte("recordedAt,value\n2026-06-01T08:00:00Z,61.5\n2026-06-01 09:00:00,62\n2026-06-02,63\n")
	preview, err := svc.Preview(data, "csv")
	require.NoError(t, err)

	assert.Equal(t, 3, preview.Total)
	require.Len(t, preview.Rows, 3)
	assert.Empty(t, preview.Errors)
	assert.Equal(t, time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC), preview.Rows[0].RecordedAt)
	assert.Equal(t, 61.5, preview.Rows[0].Value)
}

func TestImportPreviewHeaderAliases(t *testing.T) {
	svc := newImportService(t)

	tests := []struct {
		name   string
		header string
	}{
		{"date and reading", "date,reading"},
		{"timestamp and level", "Timestamp,Level"},
		{"time and value", "time,value"},
		{"extra columns", "station,Date,notes,Value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data string
			cols := strings.Count(tt.header, ",") + 1
			row := make([]string, cols)
			for i := range row {
				row[i] = "x"
			}
			// Fill the matched columns with real values
			headerParts := strings.Split(tt.header, ",")
			for i, h := range headerParts {
				switch strings.ToLower(h) {
				case "recordedat", "date", "timestamp", "time":
					row[i] = "2026-06-01"
				case "value", "reading", "level":
					row[i] = "42"
				}
			}
			data = tt.header + "\n" + strings.Join(row, ",") + "\n"

			preview, err := svc.Preview([]byte(data), "csv")
			require.NoError(t, err)
			require.Len(t, preview.Rows, 1)
			assert.Equal(t, 42.0, preview.Rows[0].Value)
		})
	}
}

func TestImportPreviewMissingColumns(t *testing.T) {
	svc := newImportService(t)

	_, err := svc.Preview([]byte("station,notes\na,b\n"), "csv")
	require.Error(t, err)
	assert.Equal(t, "Missing recordedAt or value column", err.Error())
	assert.Equal(t, 400, apperror.StatusOf(err))
}

func TestImportPreviewBadRowsRejectedIndividually(t *testing.T) {
	svc := newImportService(t)

	data := []byte("date,value\n2026-06-01,61.5\nnot-a-date,62\n2026-06-03,not-a-number\n")
	preview, err := svc.Preview(data, "csv")
	require.NoError(t, err)

	require.Len(t, preview.Rows, 1)
	require.Len(t, preview.Errors, 2)
	assert.Equal(t, 3, preview.Errors[0].Row)
	assert.Equal(t, "Invalid date format", preview.Errors[0].Reason)
	assert.Equal(t, 4, preview.Errors[1].Row)
	assert.Equal(t, "Invalid value", preview.Errors[1].Reason)
}

func TestImportPreviewJSON(t *testing.T) {
	svc := newImportService(t)

	data := []byte(`[{"timestamp":"2026-06-01","reading":61.5},{"date":"2026-06-02","value":62}]`)
	preview, err := svc.Preview(data, "json")
	require.NoError(t, err)

	require.Len(t, preview.Rows, 2)
	assert.Equal(t, 61.5, preview.Rows[0].Value)
	assert.Equal(t, 62.0, preview.Rows[1].Value)
}

func TestImportPreviewRowCap(t *testing.T) {
	svc := newImportService(t)

	var sb strings.Builder
	sb.WriteString("date,value\n")
	for i := 0; i < MaxImportRows+1; i++ {
		fmt.Fprintf(&sb, "2026-06-01T%02d:%02d:00Z,42\n", i/60, i%60)
	}

	_, err := svc.Preview([]byte(sb.String()), "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum of 1000 rows")
}

func TestImportSaveUsesImportSource(t *testing.T) {
	logger := discardLogger(t)
	store := &stubReadingStore{}
	engine := alerting.NewEngine(store, &noopAlertStore{}, nil, logger)
	ingester := ingest.NewService(store, engine, logger)
	svc := NewImportService(ingester, logger)

	data := []byte("date,value\n2026-06-01,61.5\n")
	result, preview, err := svc.Save(context.Background(), "loc-1", "humidity", data, "csv")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Inserted)
	assert.Empty(t, preview.Errors)
	assert.Equal(t, model.SourceImport, result.Results[0].Reading.Source)
}
