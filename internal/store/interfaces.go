// Package store persists readings and alerts in Postgres and serves the
// grouped time-bucket aggregation the analytics pipeline runs on.
package store

import (
	"context"
	"time"

	"github.com/canalwise/irrigation-platform/internal/analytics"
	"github.com/canalwise/irrigation-platform/internal/model"
)

// ReadingStore is the storage contract for sensor readings
type ReadingStore interface {
	// Insert stores a single reading
	Insert(ctx context.Context, r *model.Reading) error

	// Exists reports whether a reading already exists for the exact
	// (locality, sensor type, recordedAt) key
	Exists(ctx context.Context, localityID, sensorType string, recordedAt time.Time) (bool, error)

	// FindPrevious returns the most recent reading before the given time
	// for the same locality and sensor type, excluding the given reading
	// id; nil when there is no comparison baseline
	FindPrevious(ctx context.Context, localityID, sensorType string, before time.Time, excludeID string) (*model.Reading, error)

	// FindRange returns all readings in the inclusive range, newest first
	FindRange(ctx context.Context, localityID, sensorType string, from, to time.Time) ([]model.Reading, error)

	// Latest returns the newest reading for a locality and sensor type;
	// nil when the sensor has no readings
	Latest(ctx context.Context, localityID, sensorType string) (*model.Reading, error)

	// AggregateBuckets groups readings in the range into truncated time
	// buckets with summary statistics, ordered ascending
	AggregateBuckets(ctx context.Context, localityID, sensorType string, from, to time.Time, g analytics.Granularity) ([]analytics.RawBucket, error)

	// CountBySource counts readings from one source in the range
	CountBySource(ctx context.Context, localityID, source string, from, to time.Time) (int, error)

	// FindBySource returns all readings from one source in the range,
	// oldest first
	FindBySource(ctx context.Context, localityID, source string, from, to time.Time) ([]model.Reading, error)
}

// AlertStore is the storage contract for alerts
type AlertStore interface {
	// Insert stores a single alert
	Insert(ctx context.Context, a *model.Alert) error

	// ListByLocality returns the newest alerts for a locality
	ListByLocality(ctx context.Context, localityID string, limit int) ([]model.Alert, error)

	// Acknowledge marks an alert as acknowledged; nil when the alert
	// does not exist
	Acknowledge(ctx context.Context, id, acknowledgedBy string, at time.Time) (*model.Alert, error)
}
