package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/pkg/mqtt"
)

// MQTTNotifier publishes alerts on the per-locality alert topic
type MQTTNotifier struct {
	client mqtt.Client
	logger *slog.Logger
}

// NewMQTTNotifier creates an MQTT-backed alert notifier
func NewMQTTNotifier(client mqtt.Client, logger *slog.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, logger: logger}
}

// NotifyAlert publishes the alert as JSON with QoS 1
func (n *MQTTNotifier) NotifyAlert(_ context.Context, alert *model.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	topic := mqtt.AlertTopic(alert.LocalityID, alert.SensorType)
	if err := n.client.Publish(topic, 1, false, payload); err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", topic, err)
	}

	n.logger.Debug("Published alert",
		slog.String("topic", topic),
		slog.String("alert_id", alert.ID))
	return nil
}
