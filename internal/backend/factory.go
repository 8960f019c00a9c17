package backend

import (
	"context"
	"errors"
	"fmt"

	"spendlog/internal/amqp"
	"spendlog/internal/kv"
	"spendlog/internal/log"
	"spendlog/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// dialAMQP is replaced in tests
	dialAMQP func(url, exchange, queue string, logger *log.Logger) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case MemoryBackend:
		res = f.createMemoryBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLBackend(storage.DialectSQLite, config.SQLiteDBPath)
	case PostgresBackend:
		res, err = f.createSQLBackend(storage.DialectPostgres, config.PostgresDSN)
	case MySQLBackend:
		res, err = f.createSQLBackend(storage.DialectMySQL, config.MySQLDSN)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachChanges(res, config)
	return res, nil
}

// createSQLBackend opens the store; opening also applies pending migrations.
func (f *DefaultFactory) createSQLBackend(dialect storage.Dialect, dsn string) (*Result, error) {
	var (
		store *storage.SQLStore
		err   error
	)
	switch dialect {
	case storage.DialectSQLite:
		store, err = storage.OpenSQLite(dsn)
	case storage.DialectMySQL:
		store, err = storage.OpenMySQL(dsn)
	default:
		store, err = storage.OpenPostgres(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", dialect, err)
	}

	f.logger.Info("Initialized SQL backend", "dialect", string(dialect))
	return &Result{
		Store:   store,
		Cleanup: store.Close,
		Ping:    store.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *Result {
	dataDir := config.SeedDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := kv.NewFromFiles(dataDir)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &Result{
		Store:   store,
		Cleanup: func() error { return nil },
		Ping:    func(context.Context) error { return nil },
	}
}

// attachChanges connects the change publisher. A broker that cannot be
// reached is logged and the backend runs without change events.
func (f *DefaultFactory) attachChanges(res *Result, config Config) {
	if config.AMQPURL == "" {
		return
	}
	if !config.Type.Shared() {
		f.logger.Warn("AMQP configured with a memory backend; consumers cannot read the data",
			"backend", config.Type.String())
	}

	client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Changes = client
	storeCleanup := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp: %w", err))
		}
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
