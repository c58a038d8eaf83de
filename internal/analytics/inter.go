package analytics

import (
	"fmt"
	"math"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
)

// Flatline detection bounds: consecutive buckets whose averages are this
// close, with near-zero spread and enough readings, suggest a stuck sensor.
const (
	flatlineAvgDelta  = 0.001
	flatlineMaxStdDev = 0.01
	flatlineMinCount  = 5
)

// AnnotateSeries flags anomalies across consecutive buckets in an
// ordered series. It is a pure transform: the input is left untouched
// and a new annotated series is returned. Series shorter than two
// buckets or unknown sensor types come back unchanged; the first bucket
// never receives anomalies.
func AnnotateSeries(series []Bucket, sensorType string, granularity Granularity) []Bucket {
	cfg, ok := sensor.Get(sensorType)
	if !ok || len(series) < 2 {
		return series
	}

	annotated := make([]Bucket, len(series))
	copy(annotated, series)
	for i := range annotated {
		// Detach anomaly slices so appends never alias the input
		annotated[i].Anomalies = append([]Anomaly(nil), annotated[i].Anomalies...)
	}

	expectedGap := granularity.Duration()

	for i := 1; i < len(annotated); i++ {
		prev := annotated[i-1]
		curr := &annotated[i]

		// Sudden change between consecutive bucket averages. A zero
		// previous average has no defined percent change and is skipped.
		if prev.Avg != 0 {
			percentChange := math.Abs((curr.Avg-prev.Avg)/prev.Avg) * 100
			if percentChange > cfg.SuddenChangePercent {
				curr.Anomalies = append(curr.Anomalies, Anomaly{
					Type:      "sudden_change",
					Severity:  model.SeverityWarning,
					Value:     percentChange,
					Threshold: threshold(cfg.SuddenChangePercent),
					Message: fmt.Sprintf("%.1f%% change from previous period (%.2f → %.2f)",
						percentChange, prev.Avg, curr.Avg),
				})
			}
		}

		// Missing data gap: more than twice the nominal bucket duration
		actualGap := curr.Timestamp.Sub(prev.Timestamp)
		if actualGap > 2*expectedGap {
			gapValue := int(math.Round(float64(actualGap) / float64(expectedGap)))
			plural := ""
			if gapValue > 1 {
				plural = "s"
			}
			curr.Anomalies = append(curr.Anomalies, Anomaly{
				Type:     "data_gap",
				Severity: model.SeverityInfo,
				Value:    float64(gapValue),
				Message: fmt.Sprintf("%d %s%s gap in data - readings may be incomplete",
					gapValue, granularity.UnitName(), plural),
			})
		}

		// Flatline: suspiciously unchanged readings
		if math.Abs(curr.Avg-prev.Avg) < flatlineAvgDelta &&
			curr.StdDev < flatlineMaxStdDev &&
			prev.StdDev < flatlineMaxStdDev &&
			curr.Count > flatlineMinCount && prev.Count > flatlineMinCount {
			curr.Anomalies = append(curr.Anomalies, Anomaly{
				Type:     "potential_flatline",
				Severity: model.SeverityWarning,
				Value:    curr.Avg,
				Message: fmt.Sprintf("Sensor reading unchanged (%.2f) - possible sensor malfunction",
					curr.Avg),
			})
		}
	}

	return annotated
}
