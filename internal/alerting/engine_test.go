package alerting

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canalwise/irrigation-platform/internal/analytics"
	"github.com/canalwise/irrigation-platform/internal/model"
)

// fakeReadingStore serves a canned previous reading
type fakeReadingStore struct {
	previous *model.Reading
}

func (f *fakeReadingStore) Insert(ctx context.Context, r *model.Reading) error { return nil }
func (f *fakeReadingStore) Exists(ctx context.Context, localityID, sensorType string, recordedAt time.Time) (bool, error) {
	return false, nil
}
func (f *fakeReadingStore) FindPrevious(ctx context.Context, localityID, sensorType string, before time.Time, excludeID string) (*model.Reading, error) {
	return f.previous, nil
}
func (f *fakeReadingStore) FindRange(ctx context.Context, localityID, sensorType string, from, to time.Time) ([]model.Reading, error) {
	return nil, nil
}
func (f *fakeReadingStore) Latest(ctx context.Context, localityID, sensorType string) (*model.Reading, error) {
	return nil, nil
}
func (f *fakeReadingStore) AggregateBuckets(ctx context.Context, localityID, sensorType string, from, to time.Time, g analytics.Granularity) ([]analytics.RawBucket, error) {
	return nil, nil
}
func (f *fakeReadingStore) CountBySource(ctx context.Context, localityID, source string, from, to time.Time) (int, error) {
	return 0, nil
}
func (f *fakeReadingStore) FindBySource(ctx context.Context, localityID, source string, from, to time.Time) ([]model.Reading, error) {
	return nil, nil
}

// fakeAlertStore records inserted alerts
type fakeAlertStore struct {
	inserted []model.Alert
}

func (f *fakeAlertStore) Insert(ctx context.Context, a *model.Alert) error {
	f.inserted = append(f.inserted, *a)
	return nil
}
func (f *fakeAlertStore) ListByLocality(ctx context.Context, localityID string, limit int) ([]model.Alert, error) {
	return f.inserted, nil
}
func (f *fakeAlertStore) Acknowledge(ctx context.Context, id, by string, at time.Time) (*model.Alert, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reading(sensorType string, value float64) *model.Reading {
	return &model.Reading{
		ID:         "r-1",
		LocalityID: "loc-1",
		SensorType: sensorType,
		Value:      value,
		RecordedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCheckCriticalThresholdHigh(t *testing.T) {
	alerts := CheckCriticalThreshold(reading("reservoirLevel", 97))

	require.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, model.AlertThresholdExceeded, alerts[0].Type)
	assert.Equal(t, "reservoirLevel critically high: 97%", alerts[0].Message)
	require.NotNil(t, alerts[0].Threshold)
	assert.Equal(t, 95.0, *alerts[0].Threshold)
}

func TestCheckCriticalThresholdExactBoundary(t *testing.T) {
	// The boundary itself counts as critical
	alerts := CheckCriticalThreshold(reading("reservoirLevel", 95))
	assert.Len(t, alerts, 1)

	alerts = CheckCriticalThreshold(reading("reservoirLevel", 94.99))
	assert.Empty(t, alerts)
}

func TestCheckCriticalThresholdLow(t *testing.T) {
	alerts := CheckCriticalThreshold(reading("reservoirLevel", 18))

	require.Len(t, alerts, 1)
	assert.Equal(t, "reservoirLevel critically low: 18%", alerts[0].Message)
}

func TestCheckCriticalThresholdTemperatureZero(t *testing.T) {
	// Temperature's critical low is zero and must still fire
	alerts := CheckCriticalThreshold(reading("temperature", 0))

	require.Len(t, alerts, 1)
	assert.Equal(t, "temperature critically low: 0°C", alerts[0].Message)
}

func TestCheckCriticalThresholdRainfallHasNoLow(t *testing.T) {
	alerts := CheckCriticalThreshold(reading("rainfall", 0))
	assert.Empty(t, alerts)
}

func TestCheckCriticalThresholdUnknownSensor(t *testing.T) {
	assert.Nil(t, CheckCriticalThreshold(reading("salinity", 1e6)))
}

func TestCheckSuddenChange(t *testing.T) {
	readings := &fakeReadingStore{previous: reading("reservoirLevel", 80)}
	engine := NewEngine(readings, &fakeAlertStore{}, nil, testLogger())

	// 80 → 60 is a 25% drop, over the 15% threshold
	alert, err := engine.CheckSuddenChange(context.Background(), reading("reservoirLevel", 60))
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, model.SeverityWarning, alert.Severity)
	assert.Equal(t, model.AlertSuddenChange, alert.Type)
	assert.Equal(t, "Sudden 25.0% change in reservoirLevel", alert.Message)
	require.NotNil(t, alert.PreviousValue)
	assert.Equal(t, 80.0, *alert.PreviousValue)
	require.NotNil(t, alert.PercentChange)
	assert.InDelta(t, 25.0, *alert.PercentChange, 1e-9)
}

func TestCheckSuddenChangeNoBaseline(t *testing.T) {
	engine := NewEngine(&fakeReadingStore{}, &fakeAlertStore{}, nil, testLogger())

	alert, err := engine.CheckSuddenChange(context.Background(), reading("reservoirLevel", 60))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestCheckSuddenChangeZeroBaseline(t *testing.T) {
	// Any jump from zero would be an infinite percent change; it never
	// triggers instead
	readings := &fakeReadingStore{previous: reading("rainfall", 0)}
	engine := NewEngine(readings, &fakeAlertStore{}, nil, testLogger())

	alert, err := engine.CheckSuddenChange(context.Background(), reading("rainfall", 50))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestCheckSuddenChangeNegativeBaseline(t *testing.T) {
	// The signed denominator makes the percent change negative for a
	// sub-zero baseline, so it can never clear the threshold
	readings := &fakeReadingStore{previous: reading("temperature", -5)}
	engine := NewEngine(readings, &fakeAlertStore{}, nil, testLogger())

	alert, err := engine.CheckSuddenChange(context.Background(), reading("temperature", 5))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestEvaluatePersistsAlerts(t *testing.T) {
	readings := &fakeReadingStore{previous: reading("reservoirLevel", 80)}
	alertStore := &fakeAlertStore{}
	engine := NewEngine(readings, alertStore, nil, testLogger())

	// 97 breaches critical high and is a 21% jump from 80
	alerts, err := engine.Evaluate(context.Background(), reading("reservoirLevel", 97))
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.Len(t, alertStore.inserted, 2)
}
