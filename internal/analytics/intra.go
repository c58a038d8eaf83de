package analytics

import (
	"fmt"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
)

// Coefficient-of-variation threshold above which a bucket is flagged as
// highly variable, provided it has enough readings to be meaningful.
const (
	highVariabilityCV       = 15.0
	highVariabilityMinCount = 10
)

func threshold(v float64) *float64 { return &v }

// DetectIntraBucketAnomalies flags a single bucket's own statistics as
// anomalous against its sensor's configuration. The checks are
// independent; several anomaly types can co-occur on one bucket.
// Unknown sensor types yield an empty result.
func DetectIntraBucketAnomalies(bucket Bucket, sensorType string) []Anomaly {
	cfg, ok := sensor.Get(sensorType)
	if !ok {
		return nil
	}

	var anomalies []Anomaly

	// Statistical outliers beyond N standard deviations
	upperBound := bucket.Avg + cfg.StdDevThreshold*bucket.StdDev
	lowerBound := bucket.Avg - cfg.StdDevThreshold*bucket.StdDev

	if bucket.Max > upperBound {
		anomalies = append(anomalies, Anomaly{
			Type:      "statistical_outlier_high",
			Severity:  model.SeverityWarning,
			Value:     bucket.Max,
			Threshold: threshold(upperBound),
			Message: fmt.Sprintf("Peak value %.2f exceeds %vσ threshold (%.2f)",
				bucket.Max, cfg.StdDevThreshold, upperBound),
		})
	}

	if bucket.Min < lowerBound {
		anomalies = append(anomalies, Anomaly{
			Type:      "statistical_outlier_low",
			Severity:  model.SeverityWarning,
			Value:     bucket.Min,
			Threshold: threshold(lowerBound),
			Message: fmt.Sprintf("Minimum value %.2f below %vσ threshold (%.2f)",
				bucket.Min, cfg.StdDevThreshold, lowerBound),
		})
	}

	// Absolute physical limits
	if bucket.Max > cfg.AbsoluteMax {
		anomalies = append(anomalies, Anomaly{
			Type:      "physical_limit_exceeded",
			Severity:  model.SeverityWarning,
			Value:     bucket.Max,
			Threshold: threshold(cfg.AbsoluteMax),
			Message: fmt.Sprintf("Maximum value %.2f exceeds physical maximum (%v)",
				bucket.Max, cfg.AbsoluteMax),
		})
	}

	if bucket.Min < cfg.AbsoluteMin {
		anomalies = append(anomalies, Anomaly{
			Type:      "physical_limit_exceeded",
			Severity:  model.SeverityWarning,
			Value:     bucket.Min,
			Threshold: threshold(cfg.AbsoluteMin),
			Message: fmt.Sprintf("Minimum value %.2f exceeds physical minimum (%v)",
				bucket.Min, cfg.AbsoluteMin),
		})
	}

	// Critical thresholds on the bucket average
	if bucket.Avg > cfg.CriticalHigh {
		anomalies = append(anomalies, Anomaly{
			Type:      "critical_high_threshold",
			Severity:  model.SeverityWarning,
			Value:     bucket.Avg,
			Threshold: threshold(cfg.CriticalHigh),
			Message: fmt.Sprintf("Average %.2f exceeds critical high threshold (%v)",
				bucket.Avg, cfg.CriticalHigh),
		})
	}

	if cfg.CriticalLow != nil && bucket.Avg < *cfg.CriticalLow {
		anomalies = append(anomalies, Anomaly{
			Type:      "critical_low_threshold",
			Severity:  model.SeverityWarning,
			Value:     bucket.Avg,
			Threshold: threshold(*cfg.CriticalLow),
			Message: fmt.Sprintf("Average %.2f exceeds critical low threshold (%v)",
				bucket.Avg, *cfg.CriticalLow),
		})
	}

	// High variability: coefficient of variation over enough readings.
	// Skipped on a zero average where CV is undefined.
	if bucket.Avg != 0 {
		cv := (bucket.StdDev / bucket.Avg) * 100
		if cv > highVariabilityCV && bucket.Count > highVariabilityMinCount {
			anomalies = append(anomalies, Anomaly{
				Type:      "high_variability",
				Severity:  model.SeverityInfo,
				Value:     cv,
				Threshold: threshold(highVariabilityCV),
				Message: fmt.Sprintf("High variability detected (CV: %.1f%%) - possible sensor instability",
					cv),
			})
		}
	}

	return anomalies
}
