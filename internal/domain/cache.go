package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations. The ledger uses it
// for transaction lookups, pre-computed fraud verdicts, and per-sender
// velocity counters.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetVerdict retrieves a cached fraud verdict for a transaction.
	// Returns nil, nil on a miss.
	GetVerdict(ctx context.Context, txID string) (*Verdict, error)

	// SetVerdict caches a fraud verdict, typically written by the async
	// flagging worker and read at transition time.
	SetVerdict(ctx context.Context, txID string, v *Verdict, ttl time.Duration) error

	// IncrementCounter atomically increments a counter and returns the new
	// value. Used for per-sender velocity counts in a time window.
	IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
