// ABOUTME: LogStore persists log chunks in a SQLite collection table
// ABOUTME: Implements storage.DocumentStore with upserts and indexed group reads
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jerbio/BigDataTiler/internal/models"
	"github.com/jerbio/BigDataTiler/internal/storage"
)

const recordColumns = `partition_key, id, type_of_event, trigger_name, time_of_creation,
	js_time_of_creation, zipped_log, split_index, total_splits, parent_log_id, content_hash`

// LogStore handles log chunk persistence for one collection
type LogStore struct {
	db           *DB
	table        string
	maxItemBytes int
}

var _ storage.DocumentStore = (*LogStore)(nil)

// NewLogStore creates the collection table if needed. Records whose
// payload exceeds maxItemBytes are refused by Put.
func NewLogStore(ctx context.Context, db *DB, collection string, maxItemBytes int) (*LogStore, error) {
	if maxItemBytes <= 0 {
		return nil, fmt.Errorf("max item bytes must be positive, got %d", maxItemBytes)
	}
	if err := db.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}
	return &LogStore{db: db, table: collection, maxItemBytes: maxItemBytes}, nil
}

// Put saves or replaces a record (upsert)
func (s *LogStore) Put(ctx context.Context, partitionKey string, record *models.LogChange) error {
	if err := storage.CheckSize(record, s.maxItemBytes); err != nil {
		return err
	}

	var parent sql.NullString
	if p := record.ParentID(); p != "" {
		parent = sql.NullString{String: p, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.table+` (`+recordColumns+`, group_owner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(partition_key, id) DO UPDATE SET
			type_of_event = excluded.type_of_event,
			trigger_name = excluded.trigger_name,
			time_of_creation = excluded.time_of_creation,
			js_time_of_creation = excluded.js_time_of_creation,
			zipped_log = excluded.zipped_log,
			split_index = excluded.split_index,
			total_splits = excluded.total_splits,
			parent_log_id = excluded.parent_log_id,
			content_hash = excluded.content_hash,
			group_owner_id = excluded.group_owner_id
	`, partitionKey, record.ID, record.TypeOfEvent, record.Trigger,
		record.TimeOfCreation.UTC().Format(time.RFC3339Nano), int64(record.JsTimeOfCreation),
		record.ZippedLog, record.SplitIndex, record.TotalSplits, parent, record.ContentHash,
		record.GroupOwnerID())
	if err != nil {
		return fmt.Errorf("failed to put record %s: %w", record.ID, err)
	}
	return nil
}

// Get retrieves a record by id
func (s *LogStore) Get(ctx context.Context, partitionKey, id string) (*models.LogChange, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM `+s.table+` WHERE partition_key = ? AND id = ?`,
		partitionKey, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return record, nil
}

// Query returns the records of a partition that match filter
func (s *LogStore) Query(ctx context.Context, partitionKey string, filter storage.Filter, orderBy storage.OrderBy, limit int) ([]*models.LogChange, error) {
	clauses := []string{"partition_key = ?"}
	args := []any{partitionKey}

	if filter.GroupOwnerID != "" {
		clauses = append(clauses, "group_owner_id = ?")
		args = append(args, filter.GroupOwnerID)
	}
	if filter.TypeOfEvent != "" {
		clauses = append(clauses, "type_of_event = ?")
		args = append(args, filter.TypeOfEvent)
	}
	if !filter.CreatedFrom.IsZero() {
		clauses = append(clauses, "js_time_of_creation >= ?")
		args = append(args, int64(models.JsMillis(filter.CreatedFrom)))
	}
	if !filter.CreatedTo.IsZero() {
		clauses = append(clauses, "js_time_of_creation < ?")
		args = append(args, int64(models.JsMillis(filter.CreatedTo)))
	}
	if filter.OwnersOnly {
		clauses = append(clauses, "parent_log_id IS NULL")
	}

	order := "split_index ASC, id ASC"
	if orderBy == storage.OrderByCreatedDesc {
		order = "js_time_of_creation DESC, id ASC"
	}

	// SQLite treats a negative limit as no limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	query := `SELECT ` + recordColumns + ` FROM ` + s.table +
		` WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY ` + order + ` LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.LogChange
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete removes a record by id
func (s *LogStore) Delete(ctx context.Context, partitionKey, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM `+s.table+` WHERE partition_key = ? AND id = ?`, partitionKey, id)
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return nil
}

// Close closes the underlying database
func (s *LogStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.LogChange, error) {
	var (
		record       models.LogChange
		partitionKey string
		created      string
		jsMillis     int64
		parent       sql.NullString
	)

	err := row.Scan(&partitionKey, &record.ID, &record.TypeOfEvent, &record.Trigger, &created,
		&jsMillis, &record.ZippedLog, &record.SplitIndex, &record.TotalSplits, &parent, &record.ContentHash)
	if err != nil {
		return nil, err
	}

	record.UserID = partitionKey
	record.JsTimeOfCreation = uint64(jsMillis)
	if parent.Valid {
		p := parent.String
		record.ParentLogID = &p
	}
	record.TimeOfCreation, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("invalid creation time %q: %w", created, err)
	}
	return &record, nil
}
