// ABOUTME: Tests for the YAML log manifest export
// ABOUTME: Verifies group summaries and the written file
package bigdatatiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestClient_BuildManifest(t *testing.T) {
	client, fake := newTestClient(t, 20_000, 20_000)
	ctx := context.Background()

	small, err := client.AddLog(ctx, meta("user_1", "Preview"), "<Log/>")
	if err != nil {
		t.Fatalf("AddLog() error = %v", err)
	}
	fake.Advance(time.Minute)
	split, err := client.AddLog(ctx, meta("user_1", "ScheduleUpdate"), eventLog(30, 100_000))
	if err != nil {
		t.Fatalf("AddLog() error = %v", err)
	}

	manifest, err := client.BuildManifest(ctx, "user_1")
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}
	if len(manifest.Logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(manifest.Logs))
	}

	newest := manifest.Logs[0]
	if newest.ID != split[0].ID {
		t.Errorf("first log = %s, want newest %s", newest.ID, split[0].ID)
	}
	if newest.StoredChunks != len(split) || len(newest.ChunkIDs) != len(split) {
		t.Errorf("stored chunks = %d (%d ids), want %d", newest.StoredChunks, len(newest.ChunkIDs), len(split))
	}
	if !newest.Complete() {
		t.Error("split log should be complete")
	}
	wantBytes := 0
	for _, chunk := range split {
		wantBytes += len(chunk.ZippedLog)
	}
	if newest.CompressedBytes != wantBytes {
		t.Errorf("CompressedBytes = %d, want %d", newest.CompressedBytes, wantBytes)
	}

	oldest := manifest.Logs[1]
	if oldest.ID != small[0].ID || oldest.StoredChunks != 1 || oldest.ChunkIDs != nil {
		t.Errorf("single log entry = %+v", oldest)
	}
	if oldest.ContentHash != small[0].ContentHash {
		t.Errorf("ContentHash = %q, want %q", oldest.ContentHash, small[0].ContentHash)
	}
}

func TestClient_ManifestFlagsIncompleteGroups(t *testing.T) {
	client, _ := newTestClient(t, 20_000, 20_000)
	ctx := context.Background()

	chunks, err := client.AddLog(ctx, meta("user_1", "ScheduleUpdate"), eventLog(31, 120_000))
	if err != nil {
		t.Fatalf("AddLog() error = %v", err)
	}
	if err := client.store.Delete(ctx, "user_1", chunks[len(chunks)-1].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	manifest, err := client.BuildManifest(ctx, "user_1")
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}
	if manifest.Logs[0].Complete() {
		t.Error("group with a missing chunk should not be complete")
	}
}

func TestClient_ExportManifest(t *testing.T) {
	client, _ := newTestClient(t, 1_500_000, 2_000_000)
	ctx := context.Background()

	if _, err := client.AddLog(ctx, meta("user_1", "ScheduleUpdate"), "<Log/>"); err != nil {
		t.Fatalf("AddLog() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "manifest.yaml")
	if err := client.ExportManifest(ctx, "user_1", path); err != nil {
		t.Fatalf("ExportManifest() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if manifest.UserID != "user_1" || len(manifest.Logs) != 1 {
		t.Errorf("manifest = %+v", manifest)
	}
	if manifest.ExportedAt != startTime.Format(time.RFC3339) {
		t.Errorf("ExportedAt = %s, want clock time", manifest.ExportedAt)
	}
}
