// ABOUTME: Charm KV backed document store for log chunks
// ABOUTME: Records are CBOR encoded and synced to the charm cloud after writes
package charmkv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"

	"github.com/jerbio/BigDataTiler/internal/codec"
	"github.com/jerbio/BigDataTiler/internal/models"
	"github.com/jerbio/BigDataTiler/internal/storage"
)

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// kvBackend is the subset of the charm kv API the store needs
type kvBackend interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Close() error
}

var errClosed = errors.New("charm kv store is closed")

// Store keeps each record under <collection>:<partition>:<id>
type Store struct {
	kv           kvBackend
	config       Config
	collection   string
	maxItemBytes int
	logger       *slog.Logger
	mu           sync.Mutex
}

var _ storage.DocumentStore = (*Store)(nil)

// Open connects to charm kv. The host is passed through CHARM_HOST, which
// is how the charm client discovers its server.
func Open(cfg Config, collection string, maxItemBytes int, logger *slog.Logger) (*Store, error) {
	if cfg.Host != "" {
		if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
			return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
		}
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	s, err := newStore(db, cfg, collection, maxItemBytes, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// Pull remote data on startup
	if cfg.AutoSync {
		s.sync()
	}
	return s, nil
}

func newStore(backend kvBackend, cfg Config, collection string, maxItemBytes int, logger *slog.Logger) (*Store, error) {
	if collection == "" || strings.Contains(collection, ":") {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	if maxItemBytes <= 0 {
		return nil, fmt.Errorf("max item bytes must be positive, got %d", maxItemBytes)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		kv:           backend,
		config:       cfg,
		collection:   collection,
		maxItemBytes: maxItemBytes,
		logger:       logger,
	}, nil
}

// Put stores a record, replacing any previous value
func (s *Store) Put(ctx context.Context, partitionKey string, record *models.LogChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.CheckSize(record, s.maxItemBytes); err != nil {
		return err
	}

	data, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", record.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return errClosed
	}

	if err := s.kv.Set([]byte(s.recordKey(partitionKey, record.ID)), data); err != nil {
		return fmt.Errorf("failed to put record %s: %w", record.ID, err)
	}
	s.syncIfEnabled()
	return nil
}

// Get retrieves a record by id
func (s *Store) Get(ctx context.Context, partitionKey, id string) (*models.LogChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil, errClosed
	}

	return s.get(s.recordKey(partitionKey, id), id)
}

func (s *Store) get(key, id string) (*models.LogChange, error) {
	data, err := s.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && data == nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}

	var record models.LogChange
	if err := codec.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &record, nil
}

// Query scans the partition's keys and filters records in memory
func (s *Store) Query(ctx context.Context, partitionKey string, filter storage.Filter, orderBy storage.OrderBy, limit int) ([]*models.LogChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil, errClosed
	}

	keys, err := s.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	prefix := s.partitionPrefix(partitionKey)
	var records []*models.LogChange
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keyStr := string(key)
		if !strings.HasPrefix(keyStr, prefix) {
			continue
		}

		record, err := s.get(keyStr, strings.TrimPrefix(keyStr, prefix))
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if filter.Matches(record) {
			records = append(records, record)
		}
	}

	storage.SortRecords(records, orderBy)
	return storage.Limit(records, limit), nil
}

// Delete removes a record by id
func (s *Store) Delete(ctx context.Context, partitionKey, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return errClosed
	}

	key := s.recordKey(partitionKey, id)
	if _, err := s.get(key, id); err != nil {
		return err
	}
	if err := s.kv.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	s.syncIfEnabled()
	return nil
}

// Sync manually triggers a sync with the cloud
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return errClosed
	}
	return s.kv.Sync()
}

// Close closes the KV database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv != nil {
		err := s.kv.Close()
		s.kv = nil
		return err
	}
	return nil
}

// syncIfEnabled syncs to cloud after writes. Callers hold s.mu.
func (s *Store) syncIfEnabled() {
	if s.config.AutoSync {
		s.sync()
	}
}

// sync failures are logged, the local write has already succeeded
func (s *Store) sync() {
	if err := s.kv.Sync(); err != nil {
		s.logger.Warn("charm sync failed", "db", s.config.DBName, "error", err)
	}
}

func (s *Store) partitionPrefix(partitionKey string) string {
	return s.collection + ":" + url.QueryEscape(partitionKey) + ":"
}

func (s *Store) recordKey(partitionKey, id string) string {
	return s.partitionPrefix(partitionKey) + url.QueryEscape(id)
}
