package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Processor parses raw device messages into ingestion inputs
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new message processor
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

// DeviceMessage is a parsed raw reading from a field device
type DeviceMessage struct {
	LocalityID    string
	SensorType    string
	Value         float64
	RecordedAt    time.Time
	OriginalTopic string
}

// rawPayload is the wire format devices publish. recordedAt is
// optional; the collector stamps receive time when it is absent.
type rawPayload struct {
	Value      *float64 `json:"value"`
	RecordedAt string   `json:"recordedAt"`
}

// ParseMessage parses a raw device message.
// Topic pattern: irrigation/raw/{localityId}/{sensorType}
func (p *Processor) ParseMessage(topic string, payload []byte) (*DeviceMessage, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		p.logger.Warn("Invalid topic format", "topic", topic)
		return nil, fmt.Errorf("invalid topic format: %s (expected at least 4 parts)", topic)
	}

	localityID := parts[2]
	sensorType := parts[3]

	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if raw.Value == nil {
		return nil, fmt.Errorf("payload missing value field")
	}

	recordedAt := time.Now().UTC()
	if raw.RecordedAt != "" {
		t, err := time.Parse(time.RFC3339, raw.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid recordedAt timestamp: %w", err)
		}
		recordedAt = t.UTC()
	}

	return &DeviceMessage{
		LocalityID:    localityID,
		SensorType:    sensorType,
		Value:         *raw.Value,
		RecordedAt:    recordedAt,
		OriginalTopic: topic,
	}, nil
}
