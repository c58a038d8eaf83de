package model

import "time"

// Reading sources
const (
	SourceMock     = "mock"
	SourceDevice   = "device"
	SourceImport   = "import"
	SourceForecast = "forecast"
)

// Alert severities
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert types
const (
	AlertThresholdExceeded = "threshold_exceeded"
	AlertSuddenChange      = "sudden_change"
)

// Reading is a single environmental sensor reading for a locality.
// Readings are append-only; at most one reading exists per
// (localityId, sensorType, recordedAt).
type Reading struct {
	ID         string    `json:"id"`
	LocalityID string    `json:"localityId"`
	SensorType string    `json:"sensorType"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recordedAt"`
	Source     string    `json:"source"`
	Deleted    bool      `json:"-"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// Alert is created by the alert engine when a reading crosses a critical
// threshold or changes suddenly. Immutable except for acknowledgement.
type Alert struct {
	ID             string     `json:"id"`
	LocalityID     string     `json:"localityId"`
	SensorType     string     `json:"sensorType"`
	Severity       string     `json:"severity"`
	Type           string     `json:"type"`
	Value          float64    `json:"value"`
	Threshold      *float64   `json:"threshold,omitempty"`
	PreviousValue  *float64   `json:"previousValue,omitempty"`
	PercentChange  *float64   `json:"percentChange,omitempty"`
	Message        string     `json:"message"`
	ReadingID      string     `json:"readingId"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt,omitempty"`
}
