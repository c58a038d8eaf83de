package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGranularityForRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		expected Granularity
	}{
		{"single day", date(2026, 6, 1), date(2026, 6, 1).Add(24 * time.Hour), GranularityHourly},
		{"two days", date(2026, 6, 1), date(2026, 6, 3), GranularityHourly},
		{"one week", date(2026, 6, 1), date(2026, 6, 8), GranularityDaily},
		{"ninety days", date(2026, 1, 1), date(2026, 1, 1).AddDate(0, 0, 90), GranularityDaily},
		{"six months", date(2026, 1, 1), date(2026, 7, 1), GranularityWeekly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GranularityForRange(tt.from, tt.to))
		})
	}
}

func TestGranularityTruncate(t *testing.T) {
	// Wednesday afternoon
	ts := time.Date(2026, 6, 10, 14, 37, 22, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC), GranularityHourly.Truncate(ts))
	assert.Equal(t, date(2026, 6, 10), GranularityDaily.Truncate(ts))
	// Weekly buckets start on Monday
	assert.Equal(t, date(2026, 6, 8), GranularityWeekly.Truncate(ts))

	// A Monday truncates to itself
	monday := time.Date(2026, 6, 8, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, date(2026, 6, 8), GranularityWeekly.Truncate(monday))

	// Sunday belongs to the preceding Monday's week
	sunday := time.Date(2026, 6, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, date(2026, 6, 8), GranularityWeekly.Truncate(sunday))
}

func TestBucketFromValues(t *testing.T) {
	ts := date(2026, 6, 1)
	b := BucketFromValues(ts, []float64{10, 20, 30, 40, 50})

	assert.Equal(t, 150.0, b.Total)
	assert.Equal(t, 30.0, b.Avg)
	assert.Equal(t, 10.0, b.Min)
	assert.Equal(t, 50.0, b.Max)
	assert.Equal(t, 30.0, b.Median)
	// Nearest-rank percentiles over five values
	assert.Equal(t, 20.0, b.Percentile25)
	assert.Equal(t, 40.0, b.Percentile75)
	assert.Equal(t, 5, b.Count)
	// Sample standard deviation
	assert.InDelta(t, 15.8114, b.StdDev, 0.001)
	assert.InDelta(t, 250.0, b.Variance, 0.01)
}

func TestBucketFromValuesEvenCount(t *testing.T) {
	b := BucketFromValues(date(2026, 6, 1), []float64{4, 1, 3, 2})

	// Median averages the two middle values
	assert.Equal(t, 2.5, b.Median)
	assert.Equal(t, 1.0, b.Percentile25)
	assert.Equal(t, 3.0, b.Percentile75)
}

func TestBucketFromValuesSingleReading(t *testing.T) {
	b := BucketFromValues(date(2026, 6, 1), []float64{42})

	assert.Equal(t, 42.0, b.Avg)
	assert.Equal(t, 42.0, b.Median)
	assert.Equal(t, 42.0, b.Percentile25)
	assert.Equal(t, 42.0, b.Percentile75)
	// No spread statistic from one reading
	assert.Equal(t, 0.0, b.StdDev)
}

func TestBucketFromValuesEmpty(t *testing.T) {
	b := BucketFromValues(date(2026, 6, 1), nil)
	assert.Equal(t, 0, b.Count)
	assert.Equal(t, 0.0, b.Avg)
}

func TestBuildBucketLeavesInputSorted(t *testing.T) {
	raw := RawBucket{
		Timestamp: date(2026, 6, 1),
		Total:     6,
		Avg:       2,
		Min:       1,
		Max:       3,
		Values:    []float64{3, 1, 2},
		Count:     3,
	}

	b := BuildBucket(raw)
	require.Equal(t, 2.0, b.Median)
	// The raw slice must not be reordered in place
	assert.Equal(t, []float64{3, 1, 2}, raw.Values)
}
