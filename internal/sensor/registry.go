// Package sensor holds the static per-sensor-type configuration and the
// range validator. The registry is an immutable lookup table loaded at
// process start; behavior only ever branches on the looked-up thresholds.
package sensor

// Sensor type identifiers
const (
	TypeRainfall       = "rainfall"
	TypeHumidity       = "humidity"
	TypeTemperature    = "temperature"
	TypeReservoirLevel = "reservoirLevel"
)

// Config is the physical and statistical configuration for one sensor type
type Config struct {
	AbsoluteMin               float64
	AbsoluteMax               float64
	CriticalLow               *float64 // nil when the sensor has no critical low
	CriticalHigh              float64
	StdDevThreshold           float64
	SuddenChangePercent       float64
	SlopeThresholdPercent     float64
	CriticalChangeRatePercent float64
	Unit                      string
	Label                     string
}

func ptr(v float64) *float64 { return &v }

var registry = map[string]Config{
	TypeRainfall: {
		AbsoluteMin:               0,
		AbsoluteMax:               500, // mm, extreme rainfall
		CriticalLow:               nil, // no critical low for rainfall
		CriticalHigh:              100, // heavy rain
		StdDevThreshold:           3,
		SuddenChangePercent:       200, // rainfall can spike dramatically
		SlopeThresholdPercent:     5.0,
		CriticalChangeRatePercent: 20.0,
		Unit:                      "mm",
		Label:                     "Effective Rainfall",
	},
	TypeHumidity: {
		AbsoluteMin:               0,
		AbsoluteMax:               100,
		CriticalLow:               ptr(10),
		CriticalHigh:              95,
		StdDevThreshold:           3,
		SuddenChangePercent:       30,
		SlopeThresholdPercent:     1.0,
		CriticalChangeRatePercent: 5.0,
		Unit:                      "%",
		Label:                     "Humidity",
	},
	TypeTemperature: {
		AbsoluteMin:               -10,
		AbsoluteMax:               50,
		CriticalLow:               ptr(0),
		CriticalHigh:              45,
		StdDevThreshold:           3,
		SuddenChangePercent:       40, // temperature can change significantly
		SlopeThresholdPercent:     2.0,
		CriticalChangeRatePercent: 8.0,
		Unit:                      "°C",
		Label:                     "Temperature",
	},
	TypeReservoirLevel: {
		AbsoluteMin:               0,
		AbsoluteMax:               100,
		CriticalLow:               ptr(20),
		CriticalHigh:              95,
		StdDevThreshold:           3,
		SuddenChangePercent:       15, // 15% change between buckets is suspicious
		SlopeThresholdPercent:     0.5, // reservoir levels change slowly
		CriticalChangeRatePercent: 2.0,
		Unit:                      "%",
		Label:                     "Reservoir Level",
	},
}

// Get returns the configuration for a sensor type. Unknown types are not
// an error at this layer; callers must check the second return value.
func Get(sensorType string) (Config, bool) {
	cfg, ok := registry[sensorType]
	return cfg, ok
}

// Types returns all known sensor types in a stable order
func Types() []string {
	return []string{TypeRainfall, TypeHumidity, TypeTemperature, TypeReservoirLevel}
}
