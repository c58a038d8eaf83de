package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canalwise/irrigation-platform/pkg/postgres"
)

// Schema statements are idempotent; Bootstrap runs on every service start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sensor_readings (
		id UUID PRIMARY KEY,
		locality_id TEXT NOT NULL,
		sensor_type TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		recorded_at TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL DEFAULT 'mock',
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (locality_id, sensor_type, recorded_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_readings_range
		ON sensor_readings (locality_id, sensor_type, recorded_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_readings_source
		ON sensor_readings (locality_id, source, recorded_at)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY,
		locality_id TEXT NOT NULL,
		sensor_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		threshold DOUBLE PRECISION,
		previous_value DOUBLE PRECISION,
		percent_change DOUBLE PRECISION,
		message TEXT NOT NULL,
		reading_id UUID,
		acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
		acknowledged_at TIMESTAMPTZ,
		acknowledged_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_locality
		ON alerts (locality_id, created_at DESC)`,
}

// Bootstrap creates the tables and indexes if they do not exist yet.
// Statements run in one transaction so a partially applied schema
// never survives a failed start.
func Bootstrap(ctx context.Context, db postgres.Client) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement: %w", err)
			}
		}
		return nil
	})
}
