// ABOUTME: DocumentStore is the persistence contract for log chunks
// ABOUTME: Shared filter, ordering and size-ceiling rules for every backend
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jerbio/BigDataTiler/internal/models"
)

var (
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("record not found")

	// ErrTooLarge is returned when a record's payload exceeds the store ceiling
	ErrTooLarge = errors.New("record exceeds store item size")
)

// TooLargeError reports the payload size that was rejected
type TooLargeError struct {
	Size  int
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%v: payload is %d bytes, limit %d", ErrTooLarge, e.Size, e.Limit)
}

func (e *TooLargeError) Unwrap() error { return ErrTooLarge }

// OrderBy selects the ordering of query results
type OrderBy int

const (
	// OrderBySplitIndex returns the chunks of a group in split order
	OrderBySplitIndex OrderBy = iota
	// OrderByCreatedDesc returns the newest records first
	OrderByCreatedDesc
)

// Filter narrows a query within one partition. Zero fields match everything.
type Filter struct {
	// GroupOwnerID matches the owner record and every chunk that points at it
	GroupOwnerID string
	TypeOfEvent  string
	// CreatedFrom is inclusive and CreatedTo exclusive, compared in epoch millis
	CreatedFrom time.Time
	CreatedTo   time.Time
	// OwnersOnly drops non-owner chunks so each log appears once
	OwnersOnly bool
}

// DocumentStore persists log chunks partitioned by user id
type DocumentStore interface {
	// Put inserts or replaces a record
	Put(ctx context.Context, partitionKey string, record *models.LogChange) error
	Get(ctx context.Context, partitionKey, id string) (*models.LogChange, error)
	// Query returns matching records in the requested order. A limit of
	// zero or less returns every match.
	Query(ctx context.Context, partitionKey string, filter Filter, orderBy OrderBy, limit int) ([]*models.LogChange, error)
	Delete(ctx context.Context, partitionKey, id string) error
	Close() error
}

// CheckSize rejects records whose payload is above limit
func CheckSize(record *models.LogChange, limit int) error {
	if len(record.ZippedLog) > limit {
		return &TooLargeError{Size: len(record.ZippedLog), Limit: limit}
	}
	return nil
}

// Matches reports whether record satisfies the filter
func (f Filter) Matches(record *models.LogChange) bool {
	if f.GroupOwnerID != "" && record.GroupOwnerID() != f.GroupOwnerID {
		return false
	}
	if f.TypeOfEvent != "" && record.TypeOfEvent != f.TypeOfEvent {
		return false
	}
	if !f.CreatedFrom.IsZero() && record.JsTimeOfCreation < models.JsMillis(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && record.JsTimeOfCreation >= models.JsMillis(f.CreatedTo) {
		return false
	}
	if f.OwnersOnly && !record.IsGroupOwner() {
		return false
	}
	return true
}

// SortRecords orders records in place. Ties fall back to id so results are
// stable across backends.
func SortRecords(records []*models.LogChange, orderBy OrderBy) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch orderBy {
		case OrderByCreatedDesc:
			if a.JsTimeOfCreation != b.JsTimeOfCreation {
				return a.JsTimeOfCreation > b.JsTimeOfCreation
			}
		default:
			if a.SplitIndex != b.SplitIndex {
				return a.SplitIndex < b.SplitIndex
			}
		}
		return a.ID < b.ID
	})
}

// Limit truncates records to at most limit entries when limit is positive
func Limit(records []*models.LogChange, limit int) []*models.LogChange {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
