package sensor

import "fmt"

// ValidationResult reports whether a raw value is inside the sensor's
// physical bounds
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validate range-checks a single raw value against the registry bounds.
// Pure function, no I/O.
func Validate(value float64, sensorType string) ValidationResult {
	cfg, ok := Get(sensorType)
	if !ok {
		return ValidationResult{Valid: false, Reason: "Invalid sensor type"}
	}

	if value < cfg.AbsoluteMin {
		return ValidationResult{
			Valid:  false,
			Reason: fmt.Sprintf("Value %v below minimum %v", value, cfg.AbsoluteMin),
		}
	}

	if value > cfg.AbsoluteMax {
		return ValidationResult{
			Valid:  false,
			Reason: fmt.Sprintf("Value %v above maximum %v", value, cfg.AbsoluteMax),
		}
	}

	return ValidationResult{Valid: true}
}
