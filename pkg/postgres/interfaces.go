package postgres

import (
	"context"
	"database/sql"
)

// Client is the database handle the stores depend on. Keeping it an
// interface lets store tests run against in-memory fakes.
type Client interface {
	// Connect opens the connection pool and verifies connectivity
	Connect(ctx context.Context) error

	// Disconnect closes the connection pool
	Disconnect() error

	// Exec runs a statement that returns no rows
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Query runs a statement that returns rows
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// QueryRow runs a statement expected to return at most one row
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row

	// Transaction runs fn inside a transaction, committing on nil
	Transaction(ctx context.Context, fn func(*sql.Tx) error) error

	// Ping verifies the database is reachable
	Ping(ctx context.Context) error
}
