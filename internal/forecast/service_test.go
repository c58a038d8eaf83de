package forecast

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canalwise/irrigation-platform/internal/alerting"
	"github.com/canalwise/irrigation-platform/internal/analytics"
	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/model"
)

// fakeStore serves canned source-scoped readings
type fakeStore struct {
	bySource []model.Reading
	inserted []model.Reading
}

func (f *fakeStore) Insert(ctx context.Context, r *model.Reading) error {
	f.inserted = append(f.inserted, *r)
	return nil
}
func (f *fakeStore) Exists(ctx context.Context, localityID, sensorType string, recordedAt time.Time) (bool, error) {
	return false, nil
}
func (f *fakeStore) FindPrevious(ctx context.Context, localityID, sensorType string, before time.Time, excludeID string) (*model.Reading, error) {
	return nil, nil
}
func (f *fakeStore) FindRange(ctx context.Context, localityID, sensorType string, from, to time.Time) ([]model.Reading, error) {
	return nil, nil
}
func (f *fakeStore) Latest(ctx context.Context, localityID, sensorType string) (*model.Reading, error) {
	return nil, nil
}
func (f *fakeStore) AggregateBuckets(ctx context.Context, localityID, sensorType string, from, to time.Time, g analytics.Granularity) ([]analytics.RawBucket, error) {
	return nil, nil
}
func (f *fakeStore) CountBySource(ctx context.Context, localityID, source string, from, to time.Time) (int, error) {
	return len(f.bySource), nil
}
func (f *fakeStore) FindBySource(ctx context.Context, localityID, source string, from, to time.Time) ([]model.Reading, error) {
	return f.bySource, nil
}

type noopAlertStore struct{}

func (noopAlertStore) Insert(ctx context.Context, a *model.Alert) error { return nil }
func (noopAlertStore) ListByLocality(ctx context.Context, localityID string, limit int) ([]model.Alert, error) {
	return nil, nil
}
func (noopAlertStore) Acknowledge(ctx context.Context, id, by string, at time.Time) (*model.Alert, error) {
	return nil, nil
}

func newTestService(store *fakeStore) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := alerting.NewEngine(store, noopAlertStore{}, nil, logger)
	ingester := ingest.NewService(store, engine, logger)
	return NewService("", store, ingester, logger)
}

func forecastRows(n int) []model.Reading {
	rows := make([]model.Reading, n)
	for i := range rows {
		rows[i] = model.Reading{
			SensorType: "rainfall",
			Value:      float64(i),
			RecordedAt: time.Date(2026, 6, 1+i%28, 0, 0, 0, 0, time.UTC),
			Source:     model.SourceForecast,
		}
	}
	return rows
}

func TestCurrentStatusCovered(t *testing.T) {
	svc := newTestService(&fakeStore{bySource: forecastRows(30)})

	status, err := svc.CurrentStatus(context.Background(), "loc-1", time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.Equal(t, 30, status.Rows)
	assert.Equal(t, "2026-06", status.Month)
}

func TestCurrentStatusNotCovered(t *testing.T) {
	svc := newTestService(&fakeStore{bySource: forecastRows(27)})

	status, err := svc.CurrentStatus(context.Background(), "loc-1", time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, status.Available)
}

func TestDataReshapesBySensorType(t *testing.T) {
	store := &fakeStore{bySource: []model.Reading{
		{SensorType: "rainfall", Value: 3, RecordedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		{SensorType: "rainfall", Value: 0, RecordedAt: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)},
		{SensorType: "temperature", Value: 31, RecordedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(store)

	data, err := svc.Data(context.Background(), "loc-1", time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, data["rainfall"], 2)
	require.Len(t, data["temperature"], 1)
	assert.Equal(t, 3.0, data["rainfall"][0].Value)
	assert.Equal(t, 31.0, data["temperature"][0].Value)
}

func TestCallbackStoresWithForecastSource(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	result, err := svc.Callback(context.Background(), "loc-1", []CallbackRow{
		{SensorType: "rainfall", Value: 4.2, RecordedAt: time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, model.SourceForecast, store.inserted[0].Source)
}

func TestCallbackRejectsEmptyPayload(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.Callback(context.Background(), "loc-1", nil)
	require.Error(t, err)
	assert.Equal(t, "Sensor reading is empty", err.Error())
}

func TestTriggerWithoutServiceURL(t *testing.T) {
	svc := newTestService(&fakeStore{})

	err := svc.Trigger(context.Background(), "loc-1", time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestMonthBounds(t *testing.T) {
	from, to := monthBounds(time.Date(2026, 6, 15, 13, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 6, 30, 23, 59, 59, 999000000, time.UTC), to)
}
