package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/canalwise/irrigation-platform/internal/analytics"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/pkg/postgres"
)

// PostgresReadingStore implements ReadingStore on top of Postgres
type PostgresReadingStore struct {
	db     postgres.Client
	logger *slog.Logger
}

// NewPostgresReadingStore creates a reading store backed by the given client
func NewPostgresReadingStore(db postgres.Client, logger *slog.Logger) *PostgresReadingStore {
	return &PostgresReadingStore{db: db, logger: logger}
}

func (s *PostgresReadingStore) Insert(ctx context.Context, r *model.Reading) error {
	query := `
		INSERT INTO sensor_readings (id, locality_id, sensor_type, value, unit, recorded_at, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.Exec(ctx, query,
		r.ID, r.LocalityID, r.SensorType, r.Value, r.Unit, r.RecordedAt, r.Source, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

func (s *PostgresReadingStore) Exists(ctx context.Context, localityID, sensorType string, recordedAt time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM sensor_readings
			WHERE locality_id = $1 AND sensor_type = $2 AND recorded_at = $3 AND deleted = FALSE
		)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, localityID, sensorType, recordedAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check reading existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresReadingStore) FindPrevious(ctx context.Context, localityID, sensorType string, before time.Time, excludeID string) (*model.Reading, error) {
	query := `
		SELECT id, locality_id, sensor_type, value, unit, recorded_at, source, deleted, created_at
		FROM sensor_readings
		WHERE locality_id = $1 AND sensor_type = $2 AND recorded_at < $3
			AND id <> $4 AND deleted = FALSE
		ORDER BY recorded_at DESC
		LIMIT 1`

	var r model.Reading
	err := s.db.QueryRow(ctx, query, localityID, sensorType, before, excludeID).Scan(
		&r.ID, &r.LocalityID, &r.SensorType, &r.Value, &r.Unit, &r.RecordedAt, &r.Source, &r.Deleted, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find previous reading: %w", err)
	}
	return &r, nil
}

func (s *PostgresReadingStore) FindRange(ctx context.Context, localityID, sensorType string, from, to time.Time) ([]model.Reading, error) {
	query := `
		SELECT id, locality_id, sensor_type, value, unit, recorded_at, source, deleted, created_at
		FROM sensor_readings
		WHERE locality_id = $1 AND sensor_type = $2
			AND recorded_at >= $3 AND recorded_at <= $4 AND deleted = FALSE
		ORDER BY recorded_at DESC`

	rows, err := s.db.Query(ctx, query, localityID, sensorType, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

func (s *PostgresReadingStore) Latest(ctx context.Context, localityID, sensorType string) (*model.Reading, error) {
	query := `
		SELECT id, locality_id, sensor_type, value, unit, recorded_at, source, deleted, created_at
		FROM sensor_readings
		WHERE locality_id = $1 AND sensor_type = $2 AND deleted = FALSE
		ORDER BY recorded_at DESC
		LIMIT 1`

	var r model.Reading
	err := s.db.QueryRow(ctx, query, localityID, sensorType).Scan(
		&r.ID, &r.LocalityID, &r.SensorType, &r.Value, &r.Unit, &r.RecordedAt, &r.Source, &r.Deleted, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest reading: %w", err)
	}
	return &r, nil
}

func (s *PostgresReadingStore) AggregateBuckets(ctx context.Context, localityID, sensorType string, from, to time.Time, g analytics.Granularity) ([]analytics.RawBucket, error) {
	trunc, err := truncUnit(g)
	if err != nil {
		return nil, err
	}

	// stddev_samp is NULL for single-reading buckets; array_agg keeps the
	// sorted raw values around for median and percentiles.
	query := fmt.Sprintf(`
		SELECT
			date_trunc('%s', recorded_at AT TIME ZONE 'UTC') AS bucket,
			SUM(value), AVG(value), MIN(value), MAX(value),
			COALESCE(STDDEV_SAMP(value), 0),
			ARRAY_AGG(value ORDER BY value),
			COUNT(*)
		FROM sensor_readings
		WHERE locality_id = $1 AND sensor_type = $2
			AND recorded_at >= $3 AND recorded_at <= $4 AND deleted = FALSE
		GROUP BY bucket
		ORDER BY bucket ASC`, trunc)

	rows, err := s.db.Query(ctx, query, localityID, sensorType, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate readings: %w", err)
	}
	defer rows.Close()

	var buckets []analytics.RawBucket
	for rows.Next() {
		var b analytics.RawBucket
		var values pq.Float64Array
		if err := rows.Scan(&b.Timestamp, &b.Total, &b.Avg, &b.Min, &b.Max, &b.StdDev, &values, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		b.Timestamp = b.Timestamp.UTC()
		b.Values = []float64(values)
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregate rows: %w", err)
	}

	s.logger.Debug("Aggregated readings",
		slog.String("locality_id", localityID),
		slog.String("sensor_type", sensorType),
		slog.String("granularity", string(g)),
		slog.Int("buckets", len(buckets)))

	return buckets, nil
}

func (s *PostgresReadingStore) CountBySource(ctx context.Context, localityID, source string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM sensor_readings
		WHERE locality_id = $1 AND source = $2
			AND recorded_at >= $3 AND recorded_at <= $4 AND deleted = FALSE`

	var count int
	if err := s.db.QueryRow(ctx, query, localityID, source, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count readings by source: %w", err)
	}
	return count, nil
}

func (s *PostgresReadingStore) FindBySource(ctx context.Context, localityID, source string, from, to time.Time) ([]model.Reading, error) {
	query := `
		SELECT id, locality_id, sensor_type, value, unit, recorded_at, source, deleted, created_at
		FROM sensor_readings
		WHERE locality_id = $1 AND source = $2
			AND recorded_at >= $3 AND recorded_at <= $4 AND deleted = FALSE
		ORDER BY recorded_at ASC`

	rows, err := s.db.Query(ctx, query, localityID, source, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings by source: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]model.Reading, error) {
	var readings []model.Reading
	for rows.Next() {
		var r model.Reading
		if err := rows.Scan(&r.ID, &r.LocalityID, &r.SensorType, &r.Value, &r.Unit,
			&r.RecordedAt, &r.Source, &r.Deleted, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		r.RecordedAt = r.RecordedAt.UTC()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}
	return readings, nil
}

func truncUnit(g analytics.Granularity) (string, error) {
	switch g {
	case analytics.GranularityHourly:
		return "hour", nil
	case analytics.GranularityDaily:
		return "day", nil
	case analytics.GranularityWeekly:
		return "week", nil
	default:
		return "", fmt.Errorf("unknown granularity: %s", g)
	}
}
