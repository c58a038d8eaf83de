package collector

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canalwise/irrigation-platform/pkg/mqtt"
)

func newTestProcessor() *Processor {
	return NewProcessor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseMessage(t *testing.T) {
	p := newTestProcessor()

	msg, err := p.ParseMessage(mqtt.RawReadingTopic("loc-7", "humidity"),
		[]byte(`{"value": 61.5, "recordedAt": "2026-06-01T08:00:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, "loc-7", msg.LocalityID)
	assert.Equal(t, "humidity", msg.SensorType)
	assert.Equal(t, 61.5, msg.Value)
	assert.Equal(t, time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC), msg.RecordedAt)
	assert.Equal(t, "irrigation/raw/loc-7/humidity", msg.OriginalTopic)
}

func TestParseMessageStampsMissingTimestamp(t *testing.T) {
	p := newTestProcessor()

	before := time.Now().UTC()
	msg, err := p.ParseMessage("irrigation/raw/loc-7/rainfall", []byte(`{"value": 0}`))
	require.NoError(t, err)

	assert.False(t, msg.RecordedAt.Before(before))
	assert.False(t, msg.RecordedAt.After(time.Now().UTC()))
}

func TestParseMessageZeroValue(t *testing.T) {
	p := newTestProcessor()

	// Zero is a legitimate reading, not an absent value
	msg, err := p.ParseMessage("irrigation/raw/loc-7/rainfall", []byte(`{"value": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, msg.Value)
}

func TestParseMessageErrors(t *testing.T) {
	p := newTestProcessor()

	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"short topic", "irrigation/raw", `{"value": 1}`},
		{"invalid json", "irrigation/raw/loc-7/humidity", `{value: 1}`},
		{"missing value", "irrigation/raw/loc-7/humidity", `{"recordedAt": "2026-06-01T08:00:00Z"}`},
		{"bad timestamp", "irrigation/raw/loc-7/humidity", `{"value": 1, "recordedAt": "yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseMessage(tt.topic, []byte(tt.payload))
			assert.Error(t, err)
		})
	}
}
