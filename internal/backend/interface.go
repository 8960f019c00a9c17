package backend

import (
	"context"

	"spendlog/internal/amqp"
	"spendlog/internal/kv"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result bundles the key-value store with the optional change publisher.
// Changes is nil when AMQP is not configured.
type Result struct {
	Store   kv.Store
	Changes *amqp.Client
	Cleanup CleanupFunc
	Ping    func(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN string

	// MySQL specific
	MySQLDSN string

	// Memory backend specific
	SeedDirectory string

	// Change events, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MySQLBackend    BackendType = "mysql"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, MySQLBackend:
		return true
	default:
		return false
	}
}

// Shared reports whether other processes can read the same data.
func (bt BackendType) Shared() bool {
	return bt == SQLiteBackend || bt == PostgresBackend || bt == MySQLBackend
}
