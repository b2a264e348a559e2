// ABOUTME: Builds a Client from configuration
// ABOUTME: Selects the storage backend and sets up logging
package bigdatatiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jerbio/BigDataTiler/internal/config"
	"github.com/jerbio/BigDataTiler/internal/logging"
	"github.com/jerbio/BigDataTiler/internal/storage"
	"github.com/jerbio/BigDataTiler/internal/storage/charmkv"
	"github.com/jerbio/BigDataTiler/internal/storage/sqlite"
)

// Open creates a client from cfg. A logger passed with WithLogger replaces
// the one built from the configured level and format.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	resolved := *cfg
	resolved.Resolve()
	cfg = &resolved
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Prefix: "tiler",
	})
	if err != nil {
		return nil, err
	}
	probe := &Client{logger: logger}
	for _, opt := range opts {
		opt(probe)
	}

	store, err := openStore(ctx, cfg, probe.logger)
	if err != nil {
		return nil, err
	}

	client, err := New(store, cfg.ChunkBudgetBytes, append([]Option{WithLogger(logger)}, opts...)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client.logger.Debug("opened log store",
		"backend", cfg.Backend,
		"database", cfg.Database,
		"collection", cfg.Collection,
		"chunk_budget", cfg.ChunkBudgetBytes,
		"store_max_item", cfg.StoreMaxItemBytes,
	)
	return client, nil
}

func openStore(ctx context.Context, cfg *Config, logger *slog.Logger) (storage.DocumentStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, err := sqlite.NewLogStore(ctx, db, cfg.Collection, cfg.StoreMaxItemBytes)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil

	case config.BackendCharm:
		return charmkv.Open(charmkv.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		}, cfg.Collection, cfg.StoreMaxItemBytes, logger)

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
