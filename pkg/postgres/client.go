// Package postgres wraps a database/sql pool behind the Client
// interface so stores can be tested against fakes.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/canalwise/irrigation-platform/pkg/config"
)

var errNotConnected = fmt.Errorf("postgres client not connected")

type pgClient struct {
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger
}

// NewClient creates an unconnected client; call Connect before use
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgClient{cfg: cfg, logger: logger}
}

// Connect opens the pool, applies the configured limits and verifies
// the database is reachable.
func (c *pgClient) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to Postgres",
		"host", c.cfg.PostgresHost,
		"port", c.cfg.PostgresPort,
		"database", c.cfg.PostgresDB)

	db, err := sql.Open("postgres", c.cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(c.cfg.PostgresMaxConnections)
	db.SetMaxIdleConns(c.cfg.PostgresMaxIdleConnections)
	db.SetConnMaxLifetime(c.cfg.PostgresConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	c.db = db
	c.logger.Info("Connected to Postgres")
	return nil
}

func (c *pgClient) Disconnect() error {
	if c.db == nil {
		return nil
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close postgres connection: %w", err)
	}

	c.db = nil
	c.logger.Info("Disconnected from Postgres")
	return nil
}

func (c *pgClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.db == nil {
		return nil, errNotConnected
	}
	return c.db.ExecContext(ctx, query, args...)
}

func (c *pgClient) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if c.db == nil {
		return nil, errNotConnected
	}
	return c.db.QueryContext(ctx, query, args...)
}

func (c *pgClient) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if c.db == nil {
		// Scanning the zero row reports the missing connection
		return &sql.Row{}
	}
	return c.db.QueryRowContext(ctx, query, args...)
}

// Transaction runs fn inside a transaction, rolling back when fn
// returns an error and committing otherwise.
func (c *pgClient) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if c.db == nil {
		return errNotConnected
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (c *pgClient) Ping(ctx context.Context) error {
	if c.db == nil {
		return errNotConnected
	}
	return c.db.PingContext(ctx)
}
