package analytics

import (
	"fmt"
	"math"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
)

// MinDataPoints is the minimum bucket count for a meaningful regression
const MinDataPoints = 3

// Fallbacks for sensor types missing from the registry
const (
	defaultSlopeThresholdPercent     = 1.0
	defaultCriticalChangeRatePercent = 5.0
)

// TrendAlert flags a fitted slope exceeding the sensor's critical change rate
type TrendAlert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// TrendResult is the outcome of the least-squares fit over a bucket
// series. When the series is too short only Direction and Message are set.
type TrendResult struct {
	Direction        string      `json:"direction"`
	Message          string      `json:"message,omitempty"`
	Slope            *float64    `json:"slope,omitempty"`
	PercentChange    *float64    `json:"percentChange,omitempty"`
	Projection       *float64    `json:"projection,omitempty"`
	RSquared         *float64    `json:"rSquared,omitempty"`
	Confidence       string      `json:"confidence,omitempty"`
	DataPoints       int         `json:"dataPoints,omitempty"`
	DataCompleteness *float64    `json:"dataCompleteness,omitempty"`
	TimeSpanDays     int         `json:"timeSpanDays,omitempty"`
	Alert            *TrendAlert `json:"alert,omitempty"`
}

// SimpleLR fits an ordinary least-squares line over the bucket series
// (x = days since the first bucket, y = bucket average) and derives
// direction, confidence and a one-gap projection.
func SimpleLR(series []Bucket, sensorType string) TrendResult {
	if len(series) < MinDataPoints {
		return TrendResult{
			Direction: "insufficient data",
			Message:   fmt.Sprintf("Needs at least %d data points for trend analysis", MinDataPoints),
		}
	}

	n := len(series)

	slopeThresholdPercent := defaultSlopeThresholdPercent
	criticalChangeRatePercent := defaultCriticalChangeRatePercent
	unit := ""
	label := sensorType
	if cfg, ok := sensor.Get(sensorType); ok {
		slopeThresholdPercent = cfg.SlopeThresholdPercent
		criticalChangeRatePercent = cfg.CriticalChangeRatePercent
		unit = cfg.Unit
		label = cfg.Label
	}

	first := series[0].Timestamp
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, b := range series {
		xs[i] = b.Timestamp.Sub(first).Hours() / 24
		ys[i] = b.Avg
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	// Percent change from first to last bucket average; a zero first
	// bucket has no defined relative change
	percentChange := 0.0
	if ys[0] != 0 {
		percentChange = (ys[n-1] - ys[0]) / ys[0] * 100
	}

	// Goodness of fit; a perfectly flat series counts as a perfect fit
	yMean := sumY / fn
	var ssTotal, ssResidual float64
	for i := 0; i < n; i++ {
		ssTotal += (ys[i] - yMean) * (ys[i] - yMean)
		predicted := intercept + slope*xs[i]
		ssResidual += (ys[i] - predicted) * (ys[i] - predicted)
	}
	rSquared := 1.0
	if ssTotal != 0 {
		rSquared = 1 - ssResidual/ssTotal
	}

	avgValue := math.Abs(yMean)
	slopeThreshold := avgValue * slopeThresholdPercent / 100
	direction := "stable"
	if math.Abs(slope) >= slopeThreshold {
		if slope > 0 {
			direction = "increasing"
		} else {
			direction = "decreasing"
		}
	}

	// Projection one average inter-bucket gap beyond the last point
	avgGapDays := xs[n-1] / float64(n-1)
	projection := intercept + slope*(xs[n-1]+avgGapDays)

	timeSpanDays := xs[n-1]
	expectedPoints := math.Floor(timeSpanDays/avgGapDays) + 1
	dataCompleteness := math.Min(fn/expectedPoints*100, 100)

	confidence := "low"
	switch {
	case rSquared > 0.8 && dataCompleteness > 80:
		confidence = "high"
	case rSquared > 0.5 && dataCompleteness > 60:
		confidence = "medium"
	}

	result := TrendResult{
		Direction:        direction,
		Slope:            &slope,
		PercentChange:    &percentChange,
		Projection:       &projection,
		RSquared:         &rSquared,
		Confidence:       confidence,
		DataPoints:       n,
		DataCompleteness: &dataCompleteness,
		TimeSpanDays:     int(math.Round(timeSpanDays)),
	}

	criticalThreshold := avgValue * criticalChangeRatePercent / 100
	if math.Abs(slope) > criticalThreshold {
		result.Alert = &TrendAlert{
			Type:     "critical_change_rate",
			Severity: model.SeverityWarning,
			Message: fmt.Sprintf("%s changing at %.2f %s/day (critical threshold: %.2f)",
				label, math.Abs(slope), unit, criticalThreshold),
		}
	}

	return result
}
