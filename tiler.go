// ABOUTME: Public names for the log tiler: records, config, store contract and errors
// ABOUTME: Aliases internal types so callers outside the module can use them
package bigdatatiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jerbio/BigDataTiler/internal/clock"
	"github.com/jerbio/BigDataTiler/internal/config"
	"github.com/jerbio/BigDataTiler/internal/core"
	"github.com/jerbio/BigDataTiler/internal/models"
	"github.com/jerbio/BigDataTiler/internal/storage"
)

type (
	Config        = config.Config
	LogChange     = models.LogChange
	LogMeta       = models.LogMeta
	TriggerType   = models.TriggerType
	DocumentStore = storage.DocumentStore
	Filter        = storage.Filter
	OrderBy       = storage.OrderBy
	Clock         = clock.Clock

	UnrepresentableError = core.UnrepresentableError
	IncompleteGroupError = core.IncompleteGroupError
	TooLargeError        = storage.TooLargeError
)

const (
	TriggerScheduleChange = models.TriggerScheduleChange
	TriggerPreview        = models.TriggerPreview

	OrderBySplitIndex  = storage.OrderBySplitIndex
	OrderByCreatedDesc = storage.OrderByCreatedDesc

	// DefaultListCount is the number of logs ListLogs returns when no count is given
	DefaultListCount = 100
)

var (
	ErrCorruptArchive       = core.ErrCorruptArchive
	ErrChunkUnrepresentable = core.ErrChunkUnrepresentable
	ErrIncompleteGroup      = core.ErrIncompleteGroup
	ErrContentMismatch      = core.ErrContentMismatch
	ErrNotFound             = storage.ErrNotFound
	ErrTooLarge             = storage.ErrTooLarge

	// ErrInvariant marks a chunk the store refused even though it fit the
	// chunk budget. It means the budget and the store ceiling disagree.
	ErrInvariant = errors.New("internal invariant violated")
)

// LoadConfig reads configuration from the environment
func LoadConfig() (*Config, error) {
	return config.Load()
}

// LoadConfigFile reads a YAML configuration file with environment overrides
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return config.Default()
}

// PartialWriteError is returned when some chunks of a group were stored and
// others were not. Pass it to ResumeWrite to finish the group.
type PartialWriteError struct {
	OwnerID string
	Written []string
	Pending []*LogChange
	Err     error
}

func (e *PartialWriteError) Error() string {
	pending := make([]string, len(e.Pending))
	for i, chunk := range e.Pending {
		pending[i] = chunk.ID
	}
	return fmt.Sprintf("partial write of log %s: %d stored, pending [%s]: %v",
		e.OwnerID, len(e.Written), strings.Join(pending, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
