package backend

import (
	"context"
	"fmt"
	"log/slog"

	"harambee/internal/amqp"
	"harambee/internal/ledger"
	"harambee/internal/repo"
	repomem "harambee/internal/repo/memory"
	"harambee/internal/services"
	"harambee/internal/storage"
)

// New builds the backend described by cfg. The AMQP leg is optional: an
// empty AMQPURL yields a service that only stores.
func New(cfg Config) (*Result, error) {
	store, cleanup, err := newLedger(cfg)
	if err != nil {
		return nil, err
	}

	if err := seedPinnedContributions(context.Background(), store, ledger.DefaultPinnedRows); err != nil {
		if cleanup != nil {
			if cerr := cleanup(); cerr != nil {
				slog.Error("cleanup after seed failure", "error", cerr)
			}
		}
		return nil, fmt.Errorf("seed pinned contributions: %w", err)
	}

	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			if cleanup != nil {
				if cerr := cleanup(); cerr != nil {
					slog.Error("cleanup after amqp failure", "error", cerr)
				}
			}
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		publisher = client
	}

	svc := services.NewContributionService(store, publisher)

	return &Result{
		Ledger:        store,
		Contributions: svc,
		Cleanup: func() error {
			return svc.Close()
		},
	}, nil
}

func newLedger(cfg Config) (repo.Ledger, CleanupFunc, error) {
	switch cfg.Type {
	case MemoryBackend:
		if cfg.SnapshotFile != "" {
			store := repomem.NewFromFile(cfg.SnapshotFile)
			return store, nil, nil
		}
		return repomem.New(), nil, nil
	case SQLiteBackend:
		store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
