// ABOUTME: SQLite schema for log chunk collections
// ABOUTME: One table per collection, keyed by partition and record id
package sqlite

import (
	"fmt"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// collectionTemplate is formatted with the table name. group_owner_id is
// derived from id and parent_log_id so a whole group is one index range.
const collectionTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
    partition_key TEXT NOT NULL,
    id TEXT NOT NULL,
    type_of_event TEXT NOT NULL DEFAULT '',
    trigger_name TEXT NOT NULL DEFAULT '',
    time_of_creation TEXT NOT NULL,
    js_time_of_creation INTEGER NOT NULL,
    zipped_log BLOB NOT NULL,
    split_index INTEGER NOT NULL DEFAULT 0,
    total_splits INTEGER NOT NULL DEFAULT 1,
    parent_log_id TEXT,
    group_owner_id TEXT NOT NULL,
    content_hash TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (partition_key, id)
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_group ON %[1]s(partition_key, group_owner_id, split_index);
CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s(partition_key, js_time_of_creation DESC);
`

// collectionSchema returns the DDL for a collection. Table names cannot be
// bound as parameters, so only plain identifiers are accepted.
func collectionSchema(collection string) (string, error) {
	if !identifierPattern.MatchString(collection) {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}
	return fmt.Sprintf(collectionTemplate, collection), nil
}
