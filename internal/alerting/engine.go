// Package alerting evaluates incoming readings against per-sensor
// critical thresholds and recent history, persists resulting alerts and
// pushes them out over MQTT.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
	"github.com/canalwise/irrigation-platform/internal/store"
)

// Notifier publishes generated alerts to interested consumers
type Notifier interface {
	NotifyAlert(ctx context.Context, alert *model.Alert) error
}

// Engine runs the alert checks for a reading and records what fires
type Engine struct {
	readings store.ReadingStore
	alerts   store.AlertStore
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine creates an alert engine. The notifier may be nil when no
// live delivery channel is configured.
func NewEngine(readings store.ReadingStore, alerts store.AlertStore, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		readings: readings,
		alerts:   alerts,
		notifier: notifier,
		logger:   logger,
	}
}

// CheckCriticalThreshold compares a reading against its sensor's
// critical bounds. Both bounds can fire on the same reading when the
// configuration makes them overlap. Unknown sensor types produce no
// alerts.
func CheckCriticalThreshold(r *model.Reading) []model.Alert {
	cfg, ok := sensor.Get(r.SensorType)
	if !ok {
		return nil
	}

	var alerts []model.Alert

	if r.Value >= cfg.CriticalHigh {
		high := cfg.CriticalHigh
		alerts = append(alerts, model.Alert{
			ID:         uuid.New().String(),
			LocalityID: r.LocalityID,
			SensorType: r.SensorType,
			Severity:   model.SeverityCritical,
			Type:       model.AlertThresholdExceeded,
			Value:      r.Value,
			Threshold:  &high,
			Message:    fmt.Sprintf("%s critically high: %v%s", r.SensorType, r.Value, cfg.Unit),
			ReadingID:  r.ID,
			CreatedAt:  time.Now().UTC(),
		})
	}

	if cfg.CriticalLow != nil && r.Value <= *cfg.CriticalLow {
		low := *cfg.CriticalLow
		alerts = append(alerts, model.Alert{
			ID:         uuid.New().String(),
			LocalityID: r.LocalityID,
			SensorType: r.SensorType,
			Severity:   model.SeverityCritical,
			Type:       model.AlertThresholdExceeded,
			Value:      r.Value,
			Threshold:  &low,
			Message:    fmt.Sprintf("%s critically low: %v%s", r.SensorType, r.Value, cfg.Unit),
			ReadingID:  r.ID,
			CreatedAt:  time.Now().UTC(),
		})
	}

	return alerts
}

// CheckSuddenChange compares a reading against the previous reading of
// the same sensor. A zero previous value has no defined percent change
// and never triggers; the denominator keeps the baseline's sign, so a
// negative baseline never triggers either. Returns nil when there is
// no baseline or the change stays under the sensor's threshold.
func (e *Engine) CheckSuddenChange(ctx context.Context, r *model.Reading) (*model.Alert, error) {
	cfg, ok := sensor.Get(r.SensorType)
	if !ok {
		return nil, nil
	}

	prev, err := e.readings.FindPrevious(ctx, r.LocalityID, r.SensorType, r.RecordedAt, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous reading: %w", err)
	}
	if prev == nil {
		return nil, nil
	}

	percentChange := 0.0
	if prev.Value != 0 {
		percentChange = math.Abs(r.Value-prev.Value) / prev.Value * 100
	}
	if percentChange <= cfg.SuddenChangePercent {
		return nil, nil
	}

	thr := cfg.SuddenChangePercent
	prevValue := prev.Value
	return &model.Alert{
		ID:            uuid.New().String(),
		LocalityID:    r.LocalityID,
		SensorType:    r.SensorType,
		Severity:      model.SeverityWarning,
		Type:          model.AlertSuddenChange,
		Value:         r.Value,
		Threshold:     &thr,
		PreviousValue: &prevValue,
		PercentChange: &percentChange,
		Message:       fmt.Sprintf("Sudden %.1f%% change in %s", percentChange, r.SensorType),
		ReadingID:     r.ID,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Evaluate runs all checks for a stored reading, persists every alert
// that fires and pushes them to the notifier. Notification failures are
// logged but do not fail the evaluation.
func (e *Engine) Evaluate(ctx context.Context, r *model.Reading) ([]model.Alert, error) {
	alerts := CheckCriticalThreshold(r)

	sudden, err := e.CheckSuddenChange(ctx, r)
	if err != nil {
		return nil, err
	}
	if sudden != nil {
		alerts = append(alerts, *sudden)
	}

	for i := range alerts {
		if err := e.alerts.Insert(ctx, &alerts[i]); err != nil {
			return nil, fmt.Errorf("failed to persist alert: %w", err)
		}

		if e.notifier != nil {
			if err := e.notifier.NotifyAlert(ctx, &alerts[i]); err != nil {
				e.logger.Warn("Failed to publish alert",
					slog.String("alert_id", alerts[i].ID),
					slog.String("error", err.Error()))
			}
		}

		e.logger.Info("Alert raised",
			slog.String("locality_id", alerts[i].LocalityID),
			slog.String("sensor_type", alerts[i].SensorType),
			slog.String("type", alerts[i].Type),
			slog.String("severity", alerts[i].Severity),
			slog.Float64("value", alerts[i].Value))
	}

	return alerts, nil
}
