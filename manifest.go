// ABOUTME: Export of a user's stored logs as a YAML manifest
// ABOUTME: Lists each log group with its chunk count, sizes and content hash
package bigdatatiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jerbio/BigDataTiler/internal/storage"
)

// Manifest describes every log stored for one user
type Manifest struct {
	Version    string        `yaml:"version"`
	ExportedAt string        `yaml:"exported_at"`
	UserID     string        `yaml:"user_id"`
	Logs       []ManifestLog `yaml:"logs"`
}

// ManifestLog summarizes one log group
type ManifestLog struct {
	ID              string   `yaml:"id"`
	TypeOfEvent     string   `yaml:"type_of_event"`
	Trigger         string   `yaml:"trigger,omitempty"`
	CreatedAt       string   `yaml:"created_at"`
	TotalSplits     int      `yaml:"total_splits"`
	StoredChunks    int      `yaml:"stored_chunks"`
	CompressedBytes int      `yaml:"compressed_bytes"`
	ContentHash     string   `yaml:"content_hash,omitempty"`
	ChunkIDs        []string `yaml:"chunk_ids,omitempty"`
}

// Complete reports whether every chunk of the group is stored
func (l ManifestLog) Complete() bool {
	return l.StoredChunks == max(l.TotalSplits, 1)
}

// BuildManifest summarizes all of a user's logs, newest first
func (c *Client) BuildManifest(ctx context.Context, userID string) (*Manifest, error) {
	owners, err := c.store.Query(ctx, userID, storage.Filter{OwnersOnly: true}, storage.OrderByCreatedDesc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	manifest := &Manifest{
		Version:    "1.0",
		ExportedAt: c.clock.Now().UTC().Format(time.RFC3339),
		UserID:     userID,
		Logs:       make([]ManifestLog, 0, len(owners)),
	}

	for _, owner := range owners {
		entry := ManifestLog{
			ID:          owner.ID,
			TypeOfEvent: owner.TypeOfEvent,
			Trigger:     owner.Trigger,
			CreatedAt:   owner.TimeOfCreation.UTC().Format(time.RFC3339Nano),
			TotalSplits: owner.TotalSplits,
			ContentHash: owner.ContentHash,
		}

		chunks, err := c.store.Query(ctx, userID, storage.Filter{GroupOwnerID: owner.ID}, storage.OrderBySplitIndex, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunks of log %s: %w", owner.ID, err)
		}
		entry.StoredChunks = len(chunks)
		for _, chunk := range chunks {
			entry.CompressedBytes += len(chunk.ZippedLog)
			if len(chunks) > 1 {
				entry.ChunkIDs = append(entry.ChunkIDs, chunk.ID)
			}
		}

		manifest.Logs = append(manifest.Logs, entry)
	}

	return manifest, nil
}

// ExportManifest writes the user's manifest to a YAML file
func (c *Client) ExportManifest(ctx context.Context, userID, outputPath string) error {
	manifest, err := c.BuildManifest(ctx, userID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(manifest); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
