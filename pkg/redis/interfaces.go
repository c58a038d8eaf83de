package redis

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
// Callers use this to distinguish a cache miss from a connectivity failure.
var ErrKeyNotFound = errors.New("redis: key not found")

// Client represents a Redis client interface for testing and abstraction
type Client interface {
	// Set sets a key to a value with an optional TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get gets the value of a key; returns ErrKeyNotFound on a miss
	Get(ctx context.Context, key string) (string, error)

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
