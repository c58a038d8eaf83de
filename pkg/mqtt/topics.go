package mqtt

import "fmt"

// Topic constants for the irrigation sensor platform
const (
	// Raw device readings (input)
	// Pattern: irrigation/raw/{localityId}/{sensorType}
	TopicRawReadings = "irrigation/raw/+/+"

	// Alert notifications (output)
	// Pattern: irrigation/alert/{localityId}/{sensorType}
	TopicAlerts = "irrigation/alert/+/+"
)

// RawReadingTopic constructs a raw reading topic for a locality and sensor type
func RawReadingTopic(localityID, sensorType string) string {
	return fmt.Sprintf("irrigation/raw/%s/%s", localityID, sensorType)
}

// AlertTopic constructs an alert topic for a locality and sensor type
func AlertTopic(localityID, sensorType string) string {
	return fmt.Sprintf("irrigation/alert/%s/%s", localityID, sensorType)
}
