// Package mockgen produces synthetic sensor readings for localities
// without live hardware. Temperature and humidity follow the sun's
// altitude at the locality's coordinates; rainfall is bursty and
// reservoir level drifts as a slow random walk.
package mockgen

import (
	"math"
	"math/rand"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
)

// Generator produces one plausible reading per sensor type per tick
type Generator struct {
	lat, lon float64
	rng      *rand.Rand

	// Reservoir level carries state between ticks
	reservoirLevel float64
}

// NewGenerator creates a generator for a locality at the given
// coordinates, seeded for reproducible sequences in tests.
func NewGenerator(lat, lon float64, seed int64) *Generator {
	return &Generator{
		lat:            lat,
		lon:            lon,
		rng:            rand.New(rand.NewSource(seed)),
		reservoirLevel: 65,
	}
}

// GenerateAll returns one reading per known sensor type for the tick
func (g *Generator) GenerateAll(localityID string, at time.Time) []model.Reading {
	at = at.UTC()
	readings := make([]model.Reading, 0, len(sensor.Types()))
	for _, sensorType := range sensor.Types() {
		readings = append(readings, g.Generate(localityID, sensorType, at))
	}
	return readings
}

// Generate returns one reading for the sensor type at the given time
func (g *Generator) Generate(localityID, sensorType string, at time.Time) model.Reading {
	cfg, _ := sensor.Get(sensorType)

	var value float64
	switch sensorType {
	case sensor.TypeTemperature:
		value = g.temperature(at)
	case sensor.TypeHumidity:
		value = g.humidity(at)
	case sensor.TypeRainfall:
		value = g.rainfall()
	case sensor.TypeReservoirLevel:
		value = g.reservoir()
	}
	value = clamp(value, cfg.AbsoluteMin, cfg.AbsoluteMax)

	return model.Reading{
		LocalityID: localityID,
		SensorType: sensorType,
		Value:      math.Round(value*100) / 100,
		Unit:       cfg.Unit,
		RecordedAt: at,
		Source:     model.SourceMock,
	}
}

// sunAltitude returns the sun's altitude in degrees at the locality
func (g *Generator) sunAltitude(at time.Time) float64 {
	position := suncalc.GetPosition(at, g.lat, g.lon)
	return position.Altitude * (180.0 / math.Pi)
}

// temperature peaks with the sun overhead and cools at night
func (g *Generator) temperature(at time.Time) float64 {
	altitude := g.sunAltitude(at)

	base := 24.0
	if altitude > 0 {
		// Up to ~9 degrees of diurnal gain at solar noon
		base += 9 * math.Sin(altitude*math.Pi/180)
	} else {
		base -= 3
	}
	return base + g.rng.Float64()*2 - 1
}

// humidity runs inverse to the sun: driest mid-afternoon, most humid
// before dawn
func (g *Generator) humidity(at time.Time) float64 {
	altitude := g.sunAltitude(at)

	base := 75.0
	if altitude > 0 {
		base -= 25 * math.Sin(altitude*math.Pi/180)
	} else {
		base += 8
	}
	return base + g.rng.Float64()*6 - 3
}

// rainfall is dry most ticks with occasional bursts
func (g *Generator) rainfall() float64 {
	roll := g.rng.Float64()
	switch {
	case roll < 0.80:
		return 0
	case roll < 0.95:
		return g.rng.Float64() * 5 // drizzle
	default:
		return 5 + g.rng.Float64()*35 // downpour
	}
}

// reservoir drifts slowly, pulled gently back toward mid-level
func (g *Generator) reservoir() float64 {
	drift := g.rng.Float64()*2 - 1
	g.reservoirLevel += drift + (65-g.reservoirLevel)*0.01
	return g.reservoirLevel
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
