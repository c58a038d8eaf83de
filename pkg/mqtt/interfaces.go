package mqtt

import "context"

// Client is the broker connection shared by the platform binaries.
// Implementations must be safe for use from multiple goroutines.
type Client interface {
	// Connect dials the broker, honouring the context deadline
	Connect(ctx context.Context) error

	// Disconnect closes the broker connection
	Disconnect()

	// Subscribe registers a handler for messages matching the topic filter
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish sends a payload to a topic
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// IsConnected reports whether the broker connection is up
	IsConnected() bool
}

// MessageHandler receives inbound messages for a subscription
type MessageHandler func(Message)

// Message is one inbound broker message
type Message interface {
	// Topic returns the concrete topic the message arrived on
	Topic() string

	// Payload returns the raw message body
	Payload() []byte
}
