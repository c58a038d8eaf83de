package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleLRInsufficientData(t *testing.T) {
	series := dailySeries(date(2026, 6, 1), 50, 52)

	result := SimpleLR(series, "humidity")
	assert.Equal(t, "insufficient data", result.Direction)
	assert.Equal(t, "Needs at least 3 data points for trend analysis", result.Message)
	assert.Nil(t, result.Slope)
	assert.Nil(t, result.RSquared)
}

func TestSimpleLRIncreasing(t *testing.T) {
	// Perfectly linear: +5 per day from 50
	series := dailySeries(date(2026, 6, 1), 50, 55, 60, 65, 70)

	result := SimpleLR(series, "humidity")
	assert.Equal(t, "increasing", result.Direction)
	require.NotNil(t, result.Slope)
	assert.InDelta(t, 5.0, *result.Slope, 1e-9)
	require.NotNil(t, result.RSquared)
	assert.InDelta(t, 1.0, *result.RSquared, 1e-9)
	require.NotNil(t, result.PercentChange)
	assert.InDelta(t, 40.0, *result.PercentChange, 1e-9)
	require.NotNil(t, result.Projection)
	assert.InDelta(t, 75.0, *result.Projection, 1e-9)
	assert.Equal(t, 5, result.DataPoints)
	assert.Equal(t, 4, result.TimeSpanDays)
	require.NotNil(t, result.DataCompleteness)
	assert.InDelta(t, 100.0, *result.DataCompleteness, 1e-9)
	assert.Equal(t, "high", result.Confidence)
}

func TestSimpleLRDecreasing(t *testing.T) {
	series := dailySeries(date(2026, 6, 1), 80, 70, 60, 50)

	result := SimpleLR(series, "reservoirLevel")
	assert.Equal(t, "decreasing", result.Direction)
	require.NotNil(t, result.Slope)
	assert.InDelta(t, -10.0, *result.Slope, 1e-9)
}

func TestSimpleLRFlatSeries(t *testing.T) {
	series := dailySeries(date(2026, 6, 1), 60, 60, 60, 60)

	result := SimpleLR(series, "humidity")
	assert.Equal(t, "stable", result.Direction)
	// A flat series fits itself perfectly
	require.NotNil(t, result.RSquared)
	assert.Equal(t, 1.0, *result.RSquared)
	assert.Nil(t, result.Alert)
}

func TestSimpleLRCriticalChangeRate(t *testing.T) {
	// Reservoir dropping 10 points per day against a ~65 average;
	// critical rate is 2% of the mean, far below the fitted slope
	series := dailySeries(date(2026, 6, 1), 80, 70, 60, 50)

	result := SimpleLR(series, "reservoirLevel")
	require.NotNil(t, result.Alert)
	assert.Equal(t, "critical_change_rate", result.Alert.Type)
	assert.Equal(t, "warning", result.Alert.Severity)
	assert.Contains(t, result.Alert.Message, "Reservoir Level changing at 10.00 %/day")
}

func TestSimpleLRZeroFirstBucket(t *testing.T) {
	// A dry spell puts a zero average in the first bucket; the relative
	// change is undefined, so it reports as zero and the result stays
	// JSON-encodable
	series := dailySeries(date(2026, 6, 1), 0, 5, 10)

	result := SimpleLR(series, "rainfall")
	require.NotNil(t, result.PercentChange)
	assert.Equal(t, 0.0, *result.PercentChange)
	require.NotNil(t, result.Slope)
	assert.InDelta(t, 5.0, *result.Slope, 1e-9)

	_, err := json.Marshal(result)
	require.NoError(t, err)
}

func TestSimpleLRUnknownSensorUsesDefaults(t *testing.T) {
	series := dailySeries(date(2026, 6, 1), 10, 20, 30)

	result := SimpleLR(series, "salinity")
	assert.Equal(t, "increasing", result.Direction)
	// Slope 10 against mean 20 clears the default 5% critical rate
	require.NotNil(t, result.Alert)
	assert.Contains(t, result.Alert.Message, "salinity changing at")
}
