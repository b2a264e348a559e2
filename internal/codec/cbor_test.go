// ABOUTME: Tests for the CBOR codec
// ABOUTME: Verifies record round trips, tag fallback and determinism
package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jerbio/BigDataTiler/internal/models"
)

func sampleRecord() *models.LogChange {
	parent := "user_1_preview_abc_1700000000000"
	return &models.LogChange{
		UserID:           "user_1",
		ID:               "user_1_preview_def_1700000000000_split1",
		TypeOfEvent:      "ScheduleUpdate",
		Trigger:          "preview",
		TimeOfCreation:   time.Date(2023, 11, 14, 22, 13, 20, 123456789, time.UTC),
		JsTimeOfCreation: 1700000000123,
		ZippedLog:        []byte{0x50, 0x4b, 0x03, 0x04, 0x00},
		SplitIndex:       1,
		TotalSplits:      3,
		ParentLogID:      &parent,
		ContentHash:      "abc123",
	}
}

func TestMarshalUnmarshal_LogChange(t *testing.T) {
	original := sampleRecord()

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded models.LogChange
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.ID != original.ID || decoded.UserID != original.UserID {
		t.Errorf("identity = %q/%q, want %q/%q", decoded.UserID, decoded.ID, original.UserID, original.ID)
	}
	if !decoded.TimeOfCreation.Equal(original.TimeOfCreation) {
		t.Errorf("TimeOfCreation = %v, want %v", decoded.TimeOfCreation, original.TimeOfCreation)
	}
	if !bytes.Equal(decoded.ZippedLog, original.ZippedLog) {
		t.Errorf("ZippedLog = %x, want %x", decoded.ZippedLog, original.ZippedLog)
	}
	if decoded.ParentID() != original.ParentID() {
		t.Errorf("ParentLogID = %q, want %q", decoded.ParentID(), original.ParentID())
	}
	if decoded.SplitIndex != 1 || decoded.TotalSplits != 3 || decoded.ContentHash != "abc123" {
		t.Errorf("split fields = %d/%d/%q", decoded.SplitIndex, decoded.TotalSplits, decoded.ContentHash)
	}
}

func TestMarshal_NilParent(t *testing.T) {
	record := sampleRecord()
	record.ParentLogID = nil

	data, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded models.LogChange
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.ParentLogID != nil {
		t.Errorf("ParentLogID = %q, want nil", *decoded.ParentLogID)
	}
}

func TestMarshal_UsesWireNames(t *testing.T) {
	data, err := Marshal(sampleRecord())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	diag, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose() error = %v", err)
	}
	for _, name := range []string{`"UserId"`, `"id"`, `"ParentLogId"`, `"ZippedLog"`} {
		if !strings.Contains(diag, name) {
			t.Errorf("diagnostic %s missing key %s", diag, name)
		}
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	first, err := Marshal(sampleRecord())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := Marshal(sampleRecord())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Marshal() produced different bytes for equal records")
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	var decoded models.LogChange
	if err := Unmarshal([]byte{0xff, 0x00, 0x13}, &decoded); err == nil {
		t.Error("Unmarshal() should reject malformed input")
	}
}
