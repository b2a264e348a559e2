// ABOUTME: Error kinds raised by the chunking and reassembly engine
// ABOUTME: Sentinels for errors.Is plus typed errors carrying diagnostics
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptArchive is returned when a payload is not a readable
	// single-entry archive of UTF-8 text.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrChunkUnrepresentable is returned when a piece at the minimum
	// split size still compresses above the size budget.
	ErrChunkUnrepresentable = errors.New("chunk unrepresentable within size budget")

	// ErrIncompleteGroup is returned when a group has missing, duplicate
	// or inconsistent split indices.
	ErrIncompleteGroup = errors.New("incomplete chunk group")

	// ErrContentMismatch is returned when reassembled text does not match
	// the content hash recorded on the group.
	ErrContentMismatch = errors.New("reassembled content does not match hash")
)

// UnrepresentableError describes the first piece that could not be brought
// under the size budget.
type UnrepresentableError struct {
	Size  int // compressed size of the offending piece
	Limit int // size budget
	Floor int // minimum split length in characters
	Chars int // character length of the offending piece
}

func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf("%v: %d chars compress to %d bytes, budget %d bytes, split floor %d chars",
		ErrChunkUnrepresentable, e.Chars, e.Size, e.Limit, e.Floor)
}

func (e *UnrepresentableError) Unwrap() error {
	return ErrChunkUnrepresentable
}

// IncompleteGroupError reports why a set of chunks does not form a group
type IncompleteGroupError struct {
	OwnerID string
	Reason  string
}

func (e *IncompleteGroupError) Error() string {
	if e.OwnerID == "" {
		return fmt.Sprintf("%v: %s", ErrIncompleteGroup, e.Reason)
	}
	return fmt.Sprintf("%v %s: %s", ErrIncompleteGroup, e.OwnerID, e.Reason)
}

func (e *IncompleteGroupError) Unwrap() error {
	return ErrIncompleteGroup
}

func incompleteGroup(ownerID, format string, args ...any) error {
	return &IncompleteGroupError{OwnerID: ownerID, Reason: fmt.Sprintf(format, args...)}
}
