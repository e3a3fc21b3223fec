package backend

import (
	"context"
	"fmt"

	"tracker/internal/adapters"
	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/storage"
	"tracker/internal/store"
	"tracker/internal/store/memory"
	"tracker/internal/store/remote"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend builds the configured store and, when AMQP is configured,
// wraps it so successful writes publish change notifications.
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
		res, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case RemoteBackend:
		res, err = f.createRemoteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		f.attachNotifications(res, config)
	}
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	if config.DataDirectory == "" {
		f.logger.Info("Initialized memory backend", "seeded", false)
		return &Result{Store: memory.New()}, nil
	}
	st, err := memory.NewFromFiles(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)
	return &Result{Store: st}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{Store: repo, Ready: repo.Ping, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*Result, error) {
	cli, err := remote.New(config.RemoteBaseURL, config.RemoteToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote store: %w", err)
	}
	f.logger.Info("Initialized remote backend", "base_url", config.RemoteBaseURL, "authenticated", config.RemoteToken != "")
	return &Result{Store: cli, Ready: seriesProbe(cli)}, nil
}

// attachNotifications wraps res.Store with an AMQP publisher. A broker that
// cannot be reached leaves the backend usable without notifications.
func (f *DefaultFactory) attachNotifications(res *Result, config Config) {
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		return
	}
	res.Store = adapters.NewNotifyingStore(res.Store, client, f.logger)

	inner := res.Cleanup
	res.Cleanup = func() error {
		amqpErr := client.Close()
		if inner != nil {
			if err := inner(); err != nil {
				return err
			}
		}
		return amqpErr
	}
	f.logger.Info("Change notifications enabled", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
}

// seriesProbe reports readiness by listing the smallest collection.
func seriesProbe(r store.RecordReader) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := r.List(ctx, core.CollectionSeries)
		return err
	}
}
