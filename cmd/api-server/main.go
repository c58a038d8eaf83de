package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/canalwise/irrigation-platform/internal/alerting"
	"github.com/canalwise/irrigation-platform/internal/api"
	"github.com/canalwise/irrigation-platform/internal/forecast"
	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/model"
	"github.com/canalwise/irrigation-platform/internal/query"
	"github.com/canalwise/irrigation-platform/internal/store"
	"github.com/canalwise/irrigation-platform/internal/ws"
	"github.com/canalwise/irrigation-platform/pkg/config"
	"github.com/canalwise/irrigation-platform/pkg/health"
	"github.com/canalwise/irrigation-platform/pkg/mqtt"
	"github.com/canalwise/irrigation-platform/pkg/postgres"
	"github.com/canalwise/irrigation-platform/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "api-server"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting API server",
		"service_name", cfg.ServiceName,
		"api_port", cfg.APIPort,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"postgres", fmt.Sprintf("%s:%d/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Infrastructure clients
	mqttClient := mqtt.NewClient(cfg, logger)
	if err := mqttClient.Connect(ctx); err != nil {
		logger.Error("Failed to connect to MQTT", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(cfg, logger)

	pgClient := postgres.NewClient(cfg, logger)
	if err := pgClient.Connect(ctx); err != nil {
		logger.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	if err := store.Bootstrap(ctx, pgClient); err != nil {
		logger.Error("Failed to bootstrap schema", "error", err)
		os.Exit(1)
	}

	// Storage and services
	readings := store.NewPostgresReadingStore(pgClient, logger)
	alerts := store.NewPostgresAlertStore(pgClient, logger)

	notifier := alerting.NewMQTTNotifier(mqttClient, logger)
	engine := alerting.NewEngine(readings, alerts, notifier, logger)
	ingester := ingest.NewService(readings, engine, logger)

	historySvc := query.NewHistoryService(readings, redisClient, cfg.CacheTTL(), cfg.HistoryPageSize, logger)
	analyticsSvc := query.NewAnalyticsService(readings, redisClient, cfg.CacheTTL(), logger)
	exportSvc := query.NewExportService(redisClient, logger)
	importSvc := query.NewImportService(ingester, logger)
	forecastSvc := forecast.NewService(cfg.ForecastServiceURL, readings, ingester, logger)

	// Websocket fan-out of alerts published on the broker
	hub := ws.NewHub(logger)
	done := make(chan struct{})
	go hub.Run(done)

	if err := subscribeAlerts(mqttClient, hub, logger); err != nil {
		logger.Error("Failed to subscribe to alert topics", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker(mqttClient, redisClient, logger)
	handlers := api.NewHandlers(ingester, historySvc, analyticsSvc, exportSvc, importSvc,
		forecastSvc, readings, alerts, hub, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.APIPort),
		Handler: api.NewRouter(handlers, checker),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-serverErr:
		logger.Error("HTTP server failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()
	close(done)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", "error", err)
	}

	mqttClient.Disconnect()
	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis connection", "error", err)
	}
	if err := pgClient.Disconnect(); err != nil {
		logger.Error("Error closing postgres connection", "error", err)
	}

	logger.Info("API server shutdown complete")
}

// subscribeAlerts forwards broker alerts to the websocket hub
func subscribeAlerts(client mqtt.Client, hub *ws.Hub, logger *slog.Logger) error {
	return client.Subscribe(mqtt.TopicAlerts, 1, func(msg mqtt.Message) {
		var alert model.Alert
		if err := json.Unmarshal(msg.Payload(), &alert); err != nil {
			logger.Warn("Discarding malformed alert message",
				"topic", msg.Topic(),
				"error", err)
			return
		}
		hub.BroadcastAlert(&alert)
	})
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
