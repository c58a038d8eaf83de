package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/pkg/postgres"
)

// PostgresAlertStore implements AlertStore on top of Postgres
type PostgresAlertStore struct {
	db     postgres.Client
	logger *slog.Logger
}

// NewPostgresAlertStore creates an alert store backed by the given client
func NewPostgresAlertStore(db postgres.Client, logger *slog.Logger) *PostgresAlertStore {
	return &PostgresAlertStore{db: db, logger: logger}
}

func (s *PostgresAlertStore) Insert(ctx context.Context, a *model.Alert) error {
	query := `
		INSERT INTO alerts (id, locality_id, sensor_type, severity, alert_type, value,
			threshold, previous_value, percent_change, message, reading_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	var readingID interface{}
	if a.ReadingID != "" {
		readingID = a.ReadingID
	}

	_, err := s.db.Exec(ctx, query,
		a.ID, a.LocalityID, a.SensorType, a.Severity, a.Type, a.Value,
		a.Threshold, a.PreviousValue, a.PercentChange, a.Message, readingID, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (s *PostgresAlertStore) ListByLocality(ctx context.Context, localityID string, limit int) ([]model.Alert, error) {
	query := `
		SELECT id, locality_id, sensor_type, severity, alert_type, value,
			threshold, previous_value, percent_change, message,
			COALESCE(reading_id::text, ''), acknowledged, acknowledged_at, acknowledged_by, created_at
		FROM alerts
		WHERE locality_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, localityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}

func (s *PostgresAlertStore) Acknowledge(ctx context.Context, id, acknowledgedBy string, at time.Time) (*model.Alert, error) {
	query := `
		UPDATE alerts
		SET acknowledged = TRUE, acknowledged_at = $2, acknowledged_by = $3
		WHERE id = $1
		RETURNING id, locality_id, sensor_type, severity, alert_type, value,
			threshold, previous_value, percent_change, message,
			COALESCE(reading_id::text, ''), acknowledged, acknowledged_at, acknowledged_by, created_at`

	a, err := scanAlert(s.db.QueryRow(ctx, query, id, at, acknowledgedBy))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Alert acknowledged",
		slog.String("alert_id", id),
		slog.String("acknowledged_by", acknowledgedBy))
	return a, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(sc rowScanner) (*model.Alert, error) {
	var a model.Alert
	var ackAt sql.NullTime
	if err := sc.Scan(&a.ID, &a.LocalityID, &a.SensorType, &a.Severity, &a.Type, &a.Value,
		&a.Threshold, &a.PreviousValue, &a.PercentChange, &a.Message,
		&a.ReadingID, &a.Acknowledged, &ackAt, &a.AcknowledgedBy, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}
	if ackAt.Valid {
		t := ackAt.Time.UTC()
		a.AcknowledgedAt = &t
	}
	return &a, nil
}
