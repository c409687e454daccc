// Package domain defines the core interfaces and types for the payment
// simulator ledger and its fraud classifier.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for ledger persistence.
type Repository interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, txID string) (*Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]*Transaction, error)
	// UpdateTransactionStatus records a status change together with the
	// fraud verdict captured during the transition attempt.
	UpdateTransactionStatus(ctx context.Context, txID string, status string, flag *bool, score *float64) error
	// CountBySender returns the number of transactions a sender submitted
	// since the given time. Used for velocity screening.
	CountBySender(ctx context.Context, senderUPI string, since time.Time) (int64, error)

	// Screening rule configuration
	SaveScreeningRule(ctx context.Context, rule *ScreeningRule) error
	ListScreeningRules(ctx context.Context) ([]*ScreeningRule, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
