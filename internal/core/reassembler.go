// ABOUTME: Reassemble rebuilds the original text from an unordered chunk group
// ABOUTME: Refuses to rebuild a group with missing or foreign chunks
package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jerbio/BigDataTiler/internal/models"
)

// Reassemble sorts chunks by split index, checks the group is complete and
// returns the concatenated text. The input slice is not modified.
func Reassemble(chunks []*models.LogChange) (string, error) {
	if len(chunks) == 0 {
		return "", incompleteGroup("", "no chunks")
	}

	ordered := make([]*models.LogChange, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SplitIndex < ordered[j].SplitIndex
	})

	if err := checkComplete(ordered); err != nil {
		return "", err
	}

	var text string
	if len(ordered) == 1 {
		t, err := Decompress(ordered[0].ZippedLog)
		if err != nil {
			return "", fmt.Errorf("failed to decompress chunk %s: %w", ordered[0].ID, err)
		}
		text = t
	} else {
		parts := make([]string, len(ordered))
		size := 0
		for i, chunk := range ordered {
			part, err := Decompress(chunk.ZippedLog)
			if err != nil {
				return "", fmt.Errorf("failed to decompress chunk %s (split %d): %w", chunk.ID, chunk.SplitIndex, err)
			}
			parts[i] = part
			size += len(part)
		}

		var b strings.Builder
		b.Grow(size)
		for _, part := range parts {
			b.WriteString(part)
		}
		text = b.String()
	}

	if want := ordered[0].ContentHash; want != "" {
		if got := ContentHash(text); got != want {
			return "", fmt.Errorf("%w: group %s hash %s, recorded %s", ErrContentMismatch, ordered[0].ID, got, want)
		}
	}

	return text, nil
}

// checkComplete requires split indices 0..n-1, one total and one owner
// across the sorted group
func checkComplete(ordered []*models.LogChange) error {
	owner := ordered[0]
	ownerID := owner.GroupOwnerID()

	total := owner.TotalSplits
	if total <= 1 && len(ordered) == 1 {
		if owner.SplitIndex != 0 {
			return incompleteGroup(ownerID, "single chunk has split index %d", owner.SplitIndex)
		}
		return nil
	}

	if total != len(ordered) {
		return incompleteGroup(ownerID, "have %d chunks, expected %d", len(ordered), total)
	}

	for i, chunk := range ordered {
		if chunk.SplitIndex != i {
			return incompleteGroup(ownerID, "split index %d at position %d", chunk.SplitIndex, i)
		}
		if chunk.TotalSplits != total {
			return incompleteGroup(ownerID, "chunk %s reports %d total splits, expected %d", chunk.ID, chunk.TotalSplits, total)
		}
		if chunk.ContentHash != owner.ContentHash {
			return incompleteGroup(ownerID, "chunk %s has a different content hash", chunk.ID)
		}
		if i == 0 {
			if !chunk.IsGroupOwner() {
				return incompleteGroup(ownerID, "split 0 chunk %s has parent %s", chunk.ID, chunk.ParentID())
			}
			continue
		}
		if chunk.ParentID() != owner.ID {
			return incompleteGroup(ownerID, "chunk %s belongs to group %s", chunk.ID, chunk.ParentID())
		}
	}

	return nil
}
