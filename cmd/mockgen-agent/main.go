package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/canalwise/irrigation-platform/internal/alerting"
	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/mockgen"
	"github.com/canalwise/irrigation-platform/internal/store"
	"github.com/canalwise/irrigation-platform/pkg/config"
	"github.com/canalwise/irrigation-platform/pkg/health"
	"github.com/canalwise/irrigation-platform/pkg/mqtt"
	"github.com/canalwise/irrigation-platform/pkg/postgres"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "mockgen-agent"
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

	logger.Info("Starting mock generator agent",
		"service_name", cfg.ServiceName,
		"interval_minutes", cfg.MockIntervalMinutes,
		"localities", len(cfg.MockLocalities),
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

	pgClient := postgres.NewClient(cfg, logger)
	if err := pgClient.Connect(ctx); err != nil {
		logger.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	if err := store.Bootstrap(ctx, pgClient); err != nil {
		logger.Error("Failed to bootstrap schema", "error", err)
		os.Exit(1)
	}

	// Generated readings go through the same pipeline as device data,
	// so threshold and sudden-change alerts fire on mock values too
	readings := store.NewPostgresReadingStore(pgClient, logger)
	alerts := store.NewPostgresAlertStore(pgClient, logger)
	notifier := alerting.NewMQTTNotifier(mqttClient, logger)
	engine := alerting.NewEngine(readings, alerts, notifier, logger)
	ingester := ingest.NewService(readings, engine, logger)

	agent := mockgen.NewAgent(ingester, cfg, logger)

	healthChecker := health.NewChecker(mqttClient, nil, logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	mqttClient.Disconnect()
	if err := pgClient.Disconnect(); err != nil {
		logger.Error("Error closing postgres connection", "error", err)
	}

	logger.Info("Mock generator agent shutdown complete")
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.Handler())
	mux.HandleFunc("/health/details", checker.DetailedHandler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
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
