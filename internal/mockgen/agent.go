package mockgen

import (
	"context"
	"log/slog"
	"time"

	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/pkg/config"
)

// Agent generates one batch of mock readings per locality per interval
type Agent struct {
	ingester   *ingest.Service
	generators map[string]*Generator
	cfg        *config.Config
	logger     *slog.Logger
}

// NewAgent creates a mock generator agent with one generator per
// configured locality
func NewAgent(ingester *ingest.Service, cfg *config.Config, logger *slog.Logger) *Agent {
	generators := make(map[string]*Generator, len(cfg.MockLocalities))
	for i, localityID := range cfg.MockLocalities {
		generators[localityID] = NewGenerator(cfg.Latitude, cfg.Longitude, time.Now().UnixNano()+int64(i))
	}

	return &Agent{
		ingester:   ingester,
		generators: generators,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start generates an immediate batch, then ticks on the configured
// interval until the context is cancelled
func (a *Agent) Start(ctx context.Context) error {
	interval := time.Duration(a.cfg.MockIntervalMinutes) * time.Minute

	a.logger.Info("Starting mock generator agent",
		"service_name", a.cfg.ServiceName,
		"interval", interval.String(),
		"localities", len(a.generators))

	a.generateAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Mock generator agent stopping")
			return nil
		case <-ticker.C:
			a.generateAll(ctx)
		}
	}
}

func (a *Agent) generateAll(ctx context.Context) {
	now := time.Now().UTC()

	for localityID, gen := range a.generators {
		readings := gen.GenerateAll(localityID, now)

		inputs := make([]ingest.ReadingInput, len(readings))
		for i, r := range readings {
			inputs[i] = ingest.ReadingInput{
				SensorType: r.SensorType,
				Value:      r.Value,
				RecordedAt: r.RecordedAt,
				Source:     r.Source,
			}
		}

		result, err := a.ingester.InsertReadings(ctx, localityID, inputs)
		if err != nil {
			a.logger.Error("Failed to ingest mock readings",
				"locality_id", localityID,
				"error", err)
			continue
		}

		a.logger.Debug("Mock readings generated",
			"locality_id", localityID,
			"inserted", result.Inserted,
			"failed", result.Failed)
	}
}
