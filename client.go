// ABOUTME: Client writes event logs to a size-limited document store and reads them back
// ABOUTME: Wires the chunking engine to a storage backend, clock and logger
package bigdatatiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jerbio/BigDataTiler/internal/clock"
	"github.com/jerbio/BigDataTiler/internal/core"
	"github.com/jerbio/BigDataTiler/internal/storage"
)

// Client stores logs as chunk groups. It is safe for concurrent use when
// the underlying store is.
type Client struct {
	engine *core.Engine
	store  storage.DocumentStore
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithClock sets the time source used to stamp logs without a creation time
func WithClock(c Clock) Option {
	return func(client *Client) { client.clock = c }
}

// WithLogger sets the logger shared by the client and its engine
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) { client.logger = logger }
}

// New creates a client over store. Every chunk it writes compresses to at
// most chunkBudgetBytes.
func New(store DocumentStore, chunkBudgetBytes int, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}

	c := &Client{
		store: store,
		clock: clock.Real(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	engine, err := core.NewEngine(chunkBudgetBytes, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	c.engine = engine
	return c, nil
}

// Close closes the underlying store
func (c *Client) Close() error {
	return c.store.Close()
}

// AddLog splits text into chunks and stores them. A zero creation time is
// replaced with the client's clock. On a store failure after the group was
// built, the error is a *PartialWriteError.
func (c *Client) AddLog(ctx context.Context, meta LogMeta, text string) ([]*LogChange, error) {
	if meta.TimeOfCreation.IsZero() {
		meta.TimeOfCreation = c.clock.Now().UTC().Truncate(time.Millisecond)
	}

	chunks, err := c.engine.ToChunks(text, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk log: %w", err)
	}

	if err := c.putChunks(ctx, chunks[0].ID, nil, chunks); err != nil {
		return nil, err
	}

	c.logger.Info("stored log",
		"user_id", meta.UserID,
		"log_id", chunks[0].ID,
		"type", meta.TypeOfEvent,
		"chunks", len(chunks),
	)
	return chunks, nil
}

// ResumeWrite stores the pending chunks of a partial write. Chunk ids are
// fixed, so chunks that did land are simply overwritten if resent.
func (c *Client) ResumeWrite(ctx context.Context, partial *PartialWriteError) error {
	if partial == nil || len(partial.Pending) == 0 {
		return nil
	}
	written := append([]string(nil), partial.Written...)
	if err := c.putChunks(ctx, partial.OwnerID, written, partial.Pending); err != nil {
		return err
	}

	c.logger.Info("resumed log write",
		"log_id", partial.OwnerID,
		"chunks", len(partial.Pending),
	)
	return nil
}

func (c *Client) putChunks(ctx context.Context, ownerID string, written []string, chunks []*LogChange) error {
	for i, chunk := range chunks {
		err := c.store.Put(ctx, chunk.UserID, chunk)
		if err == nil {
			written = append(written, chunk.ID)
			continue
		}

		if errors.Is(err, storage.ErrTooLarge) {
			err = fmt.Errorf("%w: chunk %s within budget %d was refused: %w",
				ErrInvariant, chunk.ID, c.engine.MaxBytes(), err)
		}
		c.logger.Error("failed to store chunk",
			"log_id", ownerID,
			"chunk_id", chunk.ID,
			"stored", len(written),
			"pending", len(chunks)-i,
			"error", err,
		)
		return &PartialWriteError{
			OwnerID: ownerID,
			Written: written,
			Pending: chunks[i:],
			Err:     err,
		}
	}
	return nil
}

// LoadLog returns the text of the log that id belongs to. Any chunk id of
// a group resolves to the whole log.
func (c *Client) LoadLog(ctx context.Context, userID, id string) (string, error) {
	text, _, err := c.loadGroup(ctx, userID, id)
	return text, err
}

// loadGroup reassembles the group containing id and returns its owner record
func (c *Client) loadGroup(ctx context.Context, userID, id string) (string, *LogChange, error) {
	record, err := c.store.Get(ctx, userID, id)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load log %s: %w", id, err)
	}

	if record.IsGroupOwner() && record.TotalSplits <= 1 {
		text, err := c.engine.Reassemble([]*LogChange{record})
		return text, record, err
	}

	ownerID := record.GroupOwnerID()
	chunks, err := c.store.Query(ctx, userID, storage.Filter{GroupOwnerID: ownerID}, storage.OrderBySplitIndex, 0)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load chunks of log %s: %w", ownerID, err)
	}

	text, err := c.engine.Reassemble(chunks)
	if err != nil {
		return "", nil, err
	}
	// Reassemble succeeded, so the first chunk in split order is the owner
	return text, chunks[0], nil
}

// ListLogs returns the owner records of a user's logs, newest first. An
// empty typeOfEvent matches every type and zero times leave the window
// open. A count of zero or less returns DefaultListCount logs.
func (c *Client) ListLogs(ctx context.Context, userID, typeOfEvent string, from, to time.Time, count int) ([]*LogChange, error) {
	if count <= 0 {
		count = DefaultListCount
	}

	filter := storage.Filter{
		TypeOfEvent: typeOfEvent,
		CreatedFrom: from,
		CreatedTo:   to,
		OwnersOnly:  true,
	}
	logs, err := c.store.Query(ctx, userID, filter, storage.OrderByCreatedDesc, count)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	return logs, nil
}

// DeleteLog removes every chunk of the log that id belongs to. The owner
// is removed last so an interrupted delete still reads as incomplete.
func (c *Client) DeleteLog(ctx context.Context, userID, id string) error {
	record, err := c.store.Get(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete log %s: %w", id, err)
	}

	ownerID := record.GroupOwnerID()
	chunks, err := c.store.Query(ctx, userID, storage.Filter{GroupOwnerID: ownerID}, storage.OrderBySplitIndex, 0)
	if err != nil {
		return fmt.Errorf("failed to load chunks of log %s: %w", ownerID, err)
	}

	for i := len(chunks) - 1; i >= 0; i-- {
		if err := c.store.Delete(ctx, userID, chunks[i].ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete chunk %s: %w", chunks[i].ID, err)
		}
	}

	c.logger.Info("deleted log", "user_id", userID, "log_id", ownerID, "chunks", len(chunks))
	return nil
}

// ExportArchive writes the whole log that id belongs to as a single zip
// file at path, named after the log's creation time
func (c *Client) ExportArchive(ctx context.Context, userID, id, path string) error {
	text, owner, err := c.loadGroup(ctx, userID, id)
	if err != nil {
		return err
	}

	payload, err := core.NewCompressor(owner.TimeOfCreation).Compress(text)
	if err != nil {
		return fmt.Errorf("failed to compress log %s: %w", owner.ID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}
