// Package forecast integrates with the external weather forecast
// service: it triggers forecast runs, accepts their callbacks and
// serves the stored forecast data for the current month.
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/store"
)

// A month counts as forecast-covered once it holds at least this many
// forecast readings (roughly one per day).
const minRowsForCoverage = 28

// CallbackRow is one forecast data point delivered by the service
type CallbackRow struct {
	SensorType string    `json:"sensorType"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
}

// DataPoint is one stored forecast value in the reshaped response
type DataPoint struct {
	RecordedAt time.Time `json:"recordedAt"`
	Value      float64   `json:"value"`
}

// Status reports whether the current month has forecast coverage
type Status struct {
	Available bool   `json:"available"`
	Rows      int    `json:"rows"`
	Month     string `json:"month"`
}

// Service talks to the external forecast provider and stores its results
type Service struct {
	serviceURL string
	httpClient *http.Client
	readings   store.ReadingStore
	ingester   *ingest.Service
	logger     *slog.Logger
}

// NewService creates a forecast service. serviceURL may be empty, in
// which case triggering is disabled but stored data is still served.
func NewService(serviceURL string, readings store.ReadingStore, ingester *ingest.Service, logger *slog.Logger) *Service {
	return &Service{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		readings:   readings,
		ingester:   ingester,
		logger:     logger,
	}
}

// Trigger asks the external service to produce a forecast for the
// locality. Fire-and-forget: the data arrives later via Callback.
func (s *Service) Trigger(ctx context.Context, localityID string, date time.Time) error {
	if s.serviceURL == "" {
		return apperror.BadRequest("Forecast service is not configured")
	}

	body, err := json.Marshal(map[string]string{
		"date":       date.UTC().Format("2006-01-02"),
		"localityId": localityID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode trigger request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.serviceURL+"/forecast", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach forecast service: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("forecast service returned status %d", resp.StatusCode)
	}

	s.logger.Info("Forecast triggered",
		slog.String("locality_id", localityID),
		slog.String("date", date.UTC().Format("2006-01-02")))
	return nil
}

// Callback stores forecast rows delivered by the external service.
// Rows go through the normal ingestion pipeline with source=forecast.
func (s *Service) Callback(ctx context.Context, localityID string, rows []CallbackRow) (*ingest.BatchResult, error) {
	if len(rows) == 0 {
		return nil, apperror.BadRequest("Sensor reading is empty")
	}

	inputs := make([]ingest.ReadingInput, len(rows))
	for i, row := range rows {
		inputs[i] = ingest.ReadingInput{
			SensorType: row.SensorType,
			Value:      row.Value,
			RecordedAt: row.RecordedAt,
			Source:     model.SourceForecast,
		}
	}

	result, err := s.ingester.InsertReadings(ctx, localityID, inputs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Forecast callback processed",
		slog.String("locality_id", localityID),
		slog.Int("inserted", result.Inserted),
		slog.Int("failed", result.Failed))
	return result, nil
}

// CurrentStatus reports forecast coverage for the current month
func (s *Service) CurrentStatus(ctx context.Context, localityID string, now time.Time) (*Status, error) {
	from, to := monthBounds(now)

	count, err := s.readings.CountBySource(ctx, localityID, model.SourceForecast, from, to)
	if err != nil {
		return nil, err
	}

	return &Status{
		Available: count >= minRowsForCoverage,
		Rows:      count,
		Month:     from.Format("2006-01"),
	}, nil
}

// Data returns the current month's forecast readings grouped by sensor
// type, oldest first.
func (s *Service) Data(ctx context.Context, localityID string, now time.Time) (map[string][]DataPoint, error) {
	from, to := monthBounds(now)

	rows, err := s.readings.FindBySource(ctx, localityID, model.SourceForecast, from, to)
	if err != nil {
		return nil, err
	}

	data := make(map[string][]DataPoint)
	for _, r := range rows {
		data[r.SensorType] = append(data[r.SensorType], DataPoint{
			RecordedAt: r.RecordedAt,
			Value:      r.Value,
		})
	}
	return data, nil
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Millisecond)
	return from, to
}
