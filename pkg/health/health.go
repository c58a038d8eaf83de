// Package health serves liveness and readiness endpoints for the
// platform binaries.
package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/canalwise/irrigation-platform/pkg/mqtt"
	"github.com/canalwise/irrigation-platform/pkg/redis"
)

// Checker reports process liveness and, on the detailed endpoint, the
// state of the broker and cache connections. Either dependency may be
// nil for binaries that do not use it.
type Checker struct {
	mqtt   mqtt.Client
	redis  redis.Client
	logger *slog.Logger
}

// NewChecker creates a health checker over the given dependencies
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:   mqttClient,
		redis:  redisClient,
		logger: logger,
	}
}

// Response is the health endpoint payload
type Response struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services reports the state of external dependencies
type Services struct {
	Redis string `json:"redis"`
	MQTT  string `json:"mqtt"`
}

// Handler returns the liveness handler: 200 whenever the process is
// up, without touching dependencies, so orchestrator probes stay cheap.
func (h *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := Response{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// DetailedHandler also reports broker and cache connectivity and
// degrades to 503 when a configured dependency is down
func (h *Checker) DetailedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{Redis: "disconnected", MQTT: "disconnected"}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		}
		if h.redis != nil && h.redis.Ping(r.Context()) == nil {
			services.Redis = "connected"
		}

		status := "healthy"
		statusCode := http.StatusOK
		if (h.mqtt != nil && services.MQTT == "disconnected") ||
			(h.redis != nil && services.Redis == "disconnected") {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := Response{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
