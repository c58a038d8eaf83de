// Package mqtt wraps the Paho client behind a small interface so
// agents can be tested against fakes and the broker wiring stays in
// one place.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/canalwise/irrigation-platform/pkg/config"
)

const (
	disconnectQuiesceMs  = 250
	connectRetryInterval = 5 * time.Second
	maxReconnectInterval = 30 * time.Second
)

type client struct {
	paho   pahomqtt.Client
	broker string
	logger *slog.Logger
}

// NewClient builds a broker client from configuration. Reconnection is
// automatic; subscriptions are restored by the broker session while
// the client keeps retrying.
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	broker := cfg.MQTTAddress()

	opts := pahomqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID(cfg)).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetMaxReconnectInterval(maxReconnectInterval)

	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.OnConnect = func(pahomqtt.Client) {
		logger.Info("Connected to MQTT broker", "broker", broker)
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "broker", broker, "error", err)
	}
	opts.OnReconnecting = func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		logger.Info("Reconnecting to MQTT broker", "broker", broker)
	}

	return &client{
		paho:   pahomqtt.NewClient(opts),
		broker: broker,
		logger: logger,
	}
}

// clientID returns the configured ID, or derives a unique one from the
// service name so two agents never collide on the broker.
func clientID(cfg *config.Config) string {
	if cfg.MQTTClientID != "" {
		return cfg.MQTTClientID
	}
	return fmt.Sprintf("%s-%d", cfg.ServiceName, time.Now().Unix())
}

func (c *client) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to MQTT broker", "broker", c.broker)

	token := c.paho.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker %s: %w", c.broker, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("MQTT connect aborted: %w", ctx.Err())
	}
}

func (c *client) Disconnect() {
	c.logger.Info("Disconnecting from MQTT broker", "broker", c.broker)
	c.paho.Disconnect(disconnectQuiesceMs)
}

func (c *client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.paho.Subscribe(topic, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(message{msg})
	})
	token.Wait()

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	c.logger.Info("Subscribed to MQTT topic", "topic", topic, "qos", qos)
	return nil
}

func (c *client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.paho.Publish(topic, qos, retained, payload)
	token.Wait()

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	c.logger.Debug("Published MQTT message", "topic", topic, "size", len(payload))
	return nil
}

func (c *client) IsConnected() bool {
	return c.paho.IsConnected()
}

// message adapts a Paho message to the package Message interface
type message struct {
	msg pahomqtt.Message
}

func (m message) Topic() string   { return m.msg.Topic() }
func (m message) Payload() []byte { return m.msg.Payload() }
