package query

import (
	"context"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/sensor"
	"github.com/canalwise/irrigation-platform/internal/store"
)

// LatestReadings returns the newest reading per sensor type for a
// locality. Sensor types without readings are omitted.
func LatestReadings(ctx context.Context, readings store.ReadingStore, localityID string) (map[string]model.Reading, error) {
	latest := make(map[string]model.Reading)
	for _, sensorType := range sensor.Types() {
		r, err := readings.Latest(ctx, localityID, sensorType)
		if err != nil {
			return nil, err
		}
		if r != nil {
			latest[sensorType] = *r
		}
	}
	return latest, nil
}
