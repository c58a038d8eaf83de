// Package collector receives raw device readings over MQTT and pushes
// them through the ingestion pipeline.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/pkg/config"
	"github.com/canalwise/irrigation-platform/pkg/mqtt"
)

// Agent subscribes to the raw reading topics and ingests what arrives
type Agent struct {
	mqtt      mqtt.Client
	processor *Processor
	ingester  *ingest.Service
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAgent creates a collector agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, ingester *ingest.Service, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:      mqttClient,
		processor: NewProcessor(logger),
		ingester:  ingester,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start connects to the broker, subscribes to the reading topics and
// blocks until the context is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting collector agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	topics := a.cfg.ReadingTopics
	if len(topics) == 0 {
		topics = []string{mqtt.TopicRawReadings}
	}

	for _, topic := range topics {
		if err := a.mqtt.Subscribe(topic, 1, a.handleMessage); err != nil {
			a.logger.Error("Failed to subscribe to topic", "topic", topic, "error", err)
			// Continue subscribing to other topics even if one fails
			continue
		}
	}

	a.logger.Info("Collector agent started and ready to receive messages",
		"subscribed_topics", strings.Join(topics, ", "))

	<-ctx.Done()
	a.logger.Info("Collector agent stopping")

	return nil
}

// Stop gracefully stops the collector agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping collector agent")
	a.mqtt.Disconnect()
	a.logger.Info("Collector agent stopped")
	return nil
}

// handleMessage parses one raw device message and ingests it. Ingestion
// runs the duplicate check and both alert checks; per-row rejections
// come back inside the batch result rather than as errors.
func (a *Agent) handleMessage(msg mqtt.Message) {
	topic := msg.Topic()
	payload := msg.Payload()

	a.logger.Debug("Received MQTT message", "topic", topic, "size", len(payload))

	deviceMsg, err := a.processor.ParseMessage(topic, payload)
	if err != nil {
		a.logger.Error("Failed to parse message", "topic", topic, "error", err)
		return
	}

	ctx := context.Background()
	result, err := a.ingester.InsertReadings(ctx, deviceMsg.LocalityID, []ingest.ReadingInput{{
		SensorType: deviceMsg.SensorType,
		Value:      deviceMsg.Value,
		RecordedAt: deviceMsg.RecordedAt,
		Source:     model.SourceDevice,
	}})
	if err != nil {
		a.logger.Error("Failed to ingest reading",
			"locality_id", deviceMsg.LocalityID,
			"sensor_type", deviceMsg.SensorType,
			"error", err)
		return
	}

	if result.Failed > 0 {
		a.logger.Warn("Reading rejected",
			"locality_id", deviceMsg.LocalityID,
			"sensor_type", deviceMsg.SensorType,
			"reason", result.Errors[0].Reason)
		return
	}

	a.logger.Info("Reading ingested",
		"locality_id", deviceMsg.LocalityID,
		"sensor_type", deviceMsg.SensorType,
		"alerts", len(result.Results[0].Alerts))
}
