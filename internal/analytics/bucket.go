// Package analytics implements the bucketed time-series pipeline:
// granularity selection, per-bucket summary statistics, intra- and
// inter-bucket anomaly detection, and least-squares trend estimation.
package analytics

import (
	"math"
	"sort"
	"time"
)

// Granularity is the bucket width, chosen from the query's range length
type Granularity string

const (
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
	GranularityWeekly Granularity = "weekly"
)

// GranularityForRange selects the bucket width from the range length in days:
// up to 2 days hourly, up to 90 days daily, beyond that weekly.
func GranularityForRange(from, to time.Time) Granularity {
	rangeDays := to.Sub(from).Hours() / 24

	switch {
	case rangeDays <= 2:
		return GranularityHourly
	case rangeDays <= 90:
		return GranularityDaily
	default:
		return GranularityWeekly
	}
}

// Duration returns the nominal duration of one bucket
func (g Granularity) Duration() time.Duration {
	switch g {
	case GranularityHourly:
		return time.Hour
	case GranularityWeekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// UnitName returns the singular unit word for gap messages
func (g Granularity) UnitName() string {
	switch g {
	case GranularityHourly:
		return "hour"
	case GranularityWeekly:
		return "week"
	default:
		return "day"
	}
}

// Truncate truncates a timestamp to the bucket boundary in UTC.
// Weekly buckets start on Monday, matching date_trunc('week').
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityHourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case GranularityWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Anomaly is a single flagged condition attached to one bucket
type Anomaly struct {
	Type      string   `json:"type"`
	Severity  string   `json:"severity"`
	Value     float64  `json:"value"`
	Threshold *float64 `json:"threshold,omitempty"`
	Message   string   `json:"message"`
}

// Bucket is a fixed-width time interval with aggregated statistics over
// the readings inside it. Derived per query, never persisted.
type Bucket struct {
	Timestamp    time.Time `json:"timestamp"`
	Total        float64   `json:"total"`
	Avg          float64   `json:"avg"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	StdDev       float64   `json:"stdDev"`
	Variance     float64   `json:"variance"`
	Median       float64   `json:"median"`
	Percentile25 float64   `json:"percentile25"`
	Percentile75 float64   `json:"percentile75"`
	Count        int       `json:"count"`
	Anomalies    []Anomaly `json:"anomalies,omitempty"`
}

// RawBucket is a grouped aggregate as produced by storage: the basic
// moments plus the sorted raw values for rank statistics.
type RawBucket struct {
	Timestamp time.Time
	Total     float64
	Avg       float64
	Min       float64
	Max       float64
	StdDev    float64
	Values    []float64
	Count     int
}

// BuildBucket completes a raw aggregate into a full bucket, computing
// variance and the rank statistics from the raw values.
func BuildBucket(raw RawBucket) Bucket {
	values := make([]float64, len(raw.Values))
	copy(values, raw.Values)
	sort.Float64s(values)

	return Bucket{
		Timestamp:    raw.Timestamp,
		Total:        raw.Total,
		Avg:          raw.Avg,
		Min:          raw.Min,
		Max:          raw.Max,
		StdDev:       raw.StdDev,
		Variance:     raw.StdDev * raw.StdDev,
		Median:       median(values),
		Percentile25: nearestRank(values, 25),
		Percentile75: nearestRank(values, 75),
		Count:        raw.Count,
	}
}

// BucketFromValues computes a full bucket directly from raw values,
// for storage backends without grouped aggregation support.
func BucketFromValues(timestamp time.Time, values []float64) Bucket {
	n := len(values)
	if n == 0 {
		return Bucket{Timestamp: timestamp}
	}

	var total float64
	min, max := values[0], values[0]
	for _, v := range values {
		total += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	avg := total / float64(n)

	// Sample standard deviation
	var stdDev float64
	if n > 1 {
		var ss float64
		for _, v := range values {
			d := v - avg
			ss += d * d
		}
		stdDev = math.Sqrt(ss / float64(n-1))
	}

	return BuildBucket(RawBucket{
		Timestamp: timestamp,
		Total:     total,
		Avg:       avg,
		Min:       min,
		Max:       max,
		StdDev:    stdDev,
		Values:    values,
		Count:     n,
	})
}

// median returns the middle element of a sorted slice, or the mean of
// the two middles for even counts
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// nearestRank returns the p-th percentile of a sorted slice using the
// nearest-rank method, no interpolation
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}
