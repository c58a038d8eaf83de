// Package ingest implements the batch reading ingestion pipeline:
// validation, duplicate detection, insertion and alert evaluation.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/canalwise/irrigation-platform/internal/alerting"
	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
	"github.com/canalwise/irrigation-platform/internal/store"
)

// ReadingInput is one submitted reading before it has an identity
type ReadingInput struct {
	SensorType string    `json:"sensorType"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
	Source     string    `json:"source,omitempty"`
}

// RowError ties a failed input row to the reason it was rejected
type RowError struct {
	Index  int          `json:"index"`
	Input  ReadingInput `json:"input"`
	Reason string       `json:"reason"`
}

// RowResult is one successfully inserted reading with the alerts it raised
type RowResult struct {
	Reading model.Reading `json:"reading"`
	Alerts  []model.Alert `json:"alerts"`
}

// BatchResult summarizes a batch insertion. Errors is nil when every
// row succeeded.
type BatchResult struct {
	Success  bool        `json:"success"`
	Inserted int         `json:"inserted"`
	Failed   int         `json:"failed"`
	Results  []RowResult `json:"results"`
	Errors   []RowError  `json:"errors"`
}

// Service runs the ingestion pipeline against storage and the alert engine
type Service struct {
	readings store.ReadingStore
	engine   *alerting.Engine
	logger   *slog.Logger
}

// NewService creates an ingestion service
func NewService(readings store.ReadingStore, engine *alerting.Engine, logger *slog.Logger) *Service {
	return &Service{readings: readings, engine: engine, logger: logger}
}

// InsertReadings validates and stores a batch of readings for one
// locality. Rows fail independently; one bad row never aborts the
// batch. An empty batch is rejected outright.
func (s *Service) InsertReadings(ctx context.Context, localityID string, inputs []ReadingInput) (*BatchResult, error) {
	if len(inputs) == 0 {
		return nil, apperror.BadRequest("Sensor reading is empty")
	}

	result := &BatchResult{Results: []RowResult{}}

	for i, in := range inputs {
		reason, reading, err := s.insertOne(ctx, localityID, in)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			result.Failed++
			result.Errors = append(result.Errors, RowError{Index: i, Input: in, Reason: reason})
			continue
		}

		alerts, err := s.engine.Evaluate(ctx, reading)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate alerts: %w", err)
		}
		if alerts == nil {
			alerts = []model.Alert{}
		}

		result.Inserted++
		result.Results = append(result.Results, RowResult{Reading: *reading, Alerts: alerts})
	}

	result.Success = result.Failed == 0

	s.logger.Info("Batch ingested",
		slog.String("locality_id", localityID),
		slog.Int("inserted", result.Inserted),
		slog.Int("failed", result.Failed))

	return result, nil
}

// insertOne returns a rejection reason for invalid or duplicate rows,
// a non-nil error only for infrastructure failures.
func (s *Service) insertOne(ctx context.Context, localityID string, in ReadingInput) (string, *model.Reading, error) {
	// The duplicate check comes first: a resubmitted row reports as a
	// duplicate even when its value would also fail validation
	recordedAt := in.RecordedAt.UTC()
	exists, err := s.readings.Exists(ctx, localityID, in.SensorType, recordedAt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to check for duplicate reading: %w", err)
	}
	if exists {
		return "Reading already exist for this timestamp", nil, nil
	}

	if v := sensor.Validate(in.Value, in.SensorType); !v.Valid {
		return v.Reason, nil, nil
	}

	cfg, _ := sensor.Get(in.SensorType)
	source := in.Source
	if source == "" {
		source = model.SourceDevice
	}

	reading := &model.Reading{
		ID:         uuid.New().String(),
		LocalityID: localityID,
		SensorType: in.SensorType,
		Value:      in.Value,
		Unit:       cfg.Unit,
		RecordedAt: recordedAt,
		Source:     source,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.readings.Insert(ctx, reading); err != nil {
		return "", nil, fmt.Errorf("failed to insert reading: %w", err)
	}

	return "", reading, nil
}
