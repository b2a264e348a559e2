// ABOUTME: Tests for GroupAssembler identity and ordering metadata
// ABOUTME: Verifies owner linkage, id format and copied metadata
package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jerbio/BigDataTiler/internal/models"
)

func TestAssemble_SinglePayload(t *testing.T) {
	a := NewGroupAssembler(nil)
	group := a.Assemble(testMeta(), [][]byte{{1, 2, 3}}, "hash")

	if len(group) != 1 {
		t.Fatalf("group size = %d, want 1", len(group))
	}
	log := group[0]
	if log.SplitIndex != 0 || log.TotalSplits != 1 {
		t.Errorf("split = %d/%d, want 0/1", log.SplitIndex, log.TotalSplits)
	}
	if log.ParentLogID != nil {
		t.Errorf("ParentLogID = %q, want nil", *log.ParentLogID)
	}
	if log.ID == "" {
		t.Error("ID should be assigned at construction")
	}
	if log.ContentHash != "hash" {
		t.Errorf("ContentHash = %q, want hash", log.ContentHash)
	}
}

func TestAssemble_MultiplePayloads(t *testing.T) {
	meta := testMeta()
	a := NewGroupAssembler(nil)
	group := a.Assemble(meta, [][]byte{{1}, {2}, {3}, {4}}, "")

	if len(group) != 4 {
		t.Fatalf("group size = %d, want 4", len(group))
	}

	owner := group[0]
	if owner.ParentLogID != nil {
		t.Error("owner should have no parent")
	}

	ids := make(map[string]bool)
	for i, log := range group {
		if log.SplitIndex != i {
			t.Errorf("chunk %d SplitIndex = %d", i, log.SplitIndex)
		}
		if log.TotalSplits != 4 {
			t.Errorf("chunk %d TotalSplits = %d, want 4", i, log.TotalSplits)
		}
		if log.ZippedLog[0] != byte(i+1) {
			t.Errorf("chunk %d carries payload %d", i, log.ZippedLog[0])
		}
		if log.Meta() != meta {
			t.Errorf("chunk %d meta = %+v, want %+v", i, log.Meta(), meta)
		}
		if log.JsTimeOfCreation != models.JsMillis(meta.TimeOfCreation) {
			t.Errorf("chunk %d JsTimeOfCreation = %d", i, log.JsTimeOfCreation)
		}
		if i > 0 && log.ParentID() != owner.ID {
			t.Errorf("chunk %d parent = %q, want %q", i, log.ParentID(), owner.ID)
		}
		if log.GroupOwnerID() != owner.ID {
			t.Errorf("chunk %d GroupOwnerID() = %q, want %q", i, log.GroupOwnerID(), owner.ID)
		}
		if ids[log.ID] {
			t.Errorf("duplicate id %q", log.ID)
		}
		ids[log.ID] = true
	}
}

func TestAssemble_ParentPointersAreIndependent(t *testing.T) {
	group := NewGroupAssembler(nil).Assemble(testMeta(), [][]byte{{1}, {2}, {3}}, "")
	*group[1].ParentLogID = "mutated"
	if group[2].ParentID() != group[0].ID {
		t.Error("chunks must not share a parent pointer")
	}
}

func TestAssemble_Empty(t *testing.T) {
	if group := NewGroupAssembler(nil).Assemble(testMeta(), nil, ""); group != nil {
		t.Errorf("Assemble(nil) = %d chunks, want nil", len(group))
	}
}

func TestAssemble_CustomIDFunc(t *testing.T) {
	a := NewGroupAssembler(func(meta models.LogMeta, splitIndex int) string {
		return fmt.Sprintf("%s-%d", meta.UserID, splitIndex)
	})
	group := a.Assemble(testMeta(), [][]byte{{1}, {2}}, "")

	if group[0].ID != "user_42-0" || group[1].ID != "user_42-1" {
		t.Errorf("ids = %q, %q", group[0].ID, group[1].ID)
	}
	if group[1].ParentID() != "user_42-0" {
		t.Errorf("parent = %q, want user_42-0", group[1].ParentID())
	}
}

func TestGenerateLogID(t *testing.T) {
	meta := testMeta()
	millis := fmt.Sprintf("%d", meta.TimeOfCreation.UnixMilli())

	tests := []struct {
		name       string
		meta       models.LogMeta
		splitIndex int
		prefix     string
		suffix     string
	}{
		{"owner", meta, 0, "user_42_schedulechange_", "_" + millis},
		{"split", meta, 3, "user_42_schedulechange_", "_" + millis + "_split3"},
		{"no user or trigger", models.LogMeta{TimeOfCreation: meta.TimeOfCreation}, 0, "NoUserId_NoTrigger_", "_" + millis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := GenerateLogID(tt.meta, tt.splitIndex)
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("id %q missing prefix %q", id, tt.prefix)
			}
			if !strings.HasSuffix(id, tt.suffix) {
				t.Errorf("id %q missing suffix %q", id, tt.suffix)
			}
		})
	}

	if GenerateLogID(meta, 0) == GenerateLogID(meta, 0) {
		t.Error("GenerateLogID() should not repeat")
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash("payload")
	if len(a) != 64 {
		t.Errorf("ContentHash() length = %d, want 64 hex chars", len(a))
	}
	if a != ContentHash("payload") {
		t.Error("ContentHash() should be stable")
	}
	if a == ContentHash("payload ") {
		t.Error("ContentHash() should differ for different text")
	}
}
