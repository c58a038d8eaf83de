package mockgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
)

const (
	testLat = 15.5785
	testLon = 120.9726
)

func TestGenerateAllCoversEverySensorType(t *testing.T) {
	g := NewGenerator(testLat, testLon, 1)
	readings := g.GenerateAll("loc-1", time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	require.Len(t, readings, len(sensor.Types()))

	seen := make(map[string]bool)
	for _, r := range readings {
		seen[r.SensorType] = true
		assert.Equal(t, "loc-1", r.LocalityID)
		assert.Equal(t, model.SourceMock, r.Source)

		cfg, ok := sensor.Get(r.SensorType)
		require.True(t, ok)
		assert.Equal(t, cfg.Unit, r.Unit)
		assert.GreaterOrEqual(t, r.Value, cfg.AbsoluteMin)
		assert.LessOrEqual(t, r.Value, cfg.AbsoluteMax)
	}
	assert.Len(t, seen, len(sensor.Types()))
}

func TestGenerateStaysInBoundsOverManyTicks(t *testing.T) {
	g := NewGenerator(testLat, testLon, 42)
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 500; i++ {
		for _, r := range g.GenerateAll("loc-1", at) {
			cfg, _ := sensor.Get(r.SensorType)
			assert.GreaterOrEqual(t, r.Value, cfg.AbsoluteMin)
			assert.LessOrEqual(t, r.Value, cfg.AbsoluteMax)
		}
		at = at.Add(15 * time.Minute)
	}
}

func TestGenerateDiurnalShape(t *testing.T) {
	// Same seed so the only difference is the sun's position
	noon := NewGenerator(testLat, testLon, 7).Generate("loc-1", "temperature", time.Date(2026, 6, 1, 4, 0, 0, 0, time.UTC))     // ~noon local (UTC+8)
	night := NewGenerator(testLat, testLon, 7).Generate("loc-1", "temperature", time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC))   // ~midnight local
	assert.Greater(t, noon.Value, night.Value)

	noonHum := NewGenerator(testLat, testLon, 7).Generate("loc-1", "humidity", time.Date(2026, 6, 1, 4, 0, 0, 0, time.UTC))
	nightHum := NewGenerator(testLat, testLon, 7).Generate("loc-1", "humidity", time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC))
	assert.Less(t, noonHum.Value, nightHum.Value)
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	a := NewGenerator(testLat, testLon, 99).GenerateAll("loc-1", at)
	b := NewGenerator(testLat, testLon, 99).GenerateAll("loc-1", at)
	assert.Equal(t, a, b)
}
