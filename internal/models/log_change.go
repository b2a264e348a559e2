// ABOUTME: LogChange is one persisted fragment of a compressed event log
// ABOUTME: Field names are the document store schema and must not change
package models

import (
	"time"
)

// NoUserID is substituted for an empty partition key when building ids
const NoUserID = "NoUserId"

// NoTrigger is substituted for an empty trigger when building ids
const NoTrigger = "NoTrigger"

// TriggerType names the action that caused a log to be written
type TriggerType string

const (
	TriggerScheduleChange TriggerType = "schedulechange"
	TriggerPreview        TriggerType = "preview"
)

// IsValid reports whether t is one of the known trigger types
func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerScheduleChange, TriggerPreview:
		return true
	}
	return false
}

func (t TriggerType) String() string {
	return string(t)
}

// LogMeta is the group-level metadata copied onto every chunk of a log
type LogMeta struct {
	UserID         string
	TypeOfEvent    string
	Trigger        string
	TimeOfCreation time.Time
}

// SetTrigger stamps a known trigger type onto the metadata
func (m *LogMeta) SetTrigger(trigger TriggerType) {
	m.Trigger = trigger.String()
}

// LogChange is a single store record. A log that compresses within the
// store budget is one record; larger logs become a group of records that
// share metadata and point at the split-index-0 record through ParentLogID.
type LogChange struct {
	UserID           string    `json:"UserId"`
	ID               string    `json:"id"`
	TypeOfEvent      string    `json:"TypeOfEvent"`
	Trigger          string    `json:"Trigger"`
	TimeOfCreation   time.Time `json:"TimeOfCreation"`
	JsTimeOfCreation uint64    `json:"JsTimeOfCreation"`
	ZippedLog        []byte    `json:"ZippedLog"`
	SplitIndex       int       `json:"SplitIndex"`
	TotalSplits      int       `json:"TotalSplits"`
	ParentLogID      *string   `json:"ParentLogId"`
	ContentHash      string    `json:"ContentHash,omitempty"`
}

// NewLogChange stamps metadata onto a record. Identity and split fields
// are left for the caller.
func NewLogChange(meta LogMeta) *LogChange {
	return &LogChange{
		UserID:           meta.UserID,
		TypeOfEvent:      meta.TypeOfEvent,
		Trigger:          meta.Trigger,
		TimeOfCreation:   meta.TimeOfCreation,
		JsTimeOfCreation: JsMillis(meta.TimeOfCreation),
	}
}

// Meta returns the group-level metadata of the record
func (l *LogChange) Meta() LogMeta {
	return LogMeta{
		UserID:         l.UserID,
		TypeOfEvent:    l.TypeOfEvent,
		Trigger:        l.Trigger,
		TimeOfCreation: l.TimeOfCreation,
	}
}

// GroupOwnerID returns the id of the split-index-0 record of this record's group
func (l *LogChange) GroupOwnerID() string {
	if l.ParentLogID != nil && *l.ParentLogID != "" {
		return *l.ParentLogID
	}
	return l.ID
}

// IsGroupOwner reports whether the record anchors its group
func (l *LogChange) IsGroupOwner() bool {
	return l.ParentLogID == nil || *l.ParentLogID == ""
}

// ParentID returns the parent id or "" for a group owner
func (l *LogChange) ParentID() string {
	if l.ParentLogID == nil {
		return ""
	}
	return *l.ParentLogID
}

// JsMillis converts t to JavaScript epoch milliseconds, clamping
// pre-epoch times to zero
func JsMillis(t time.Time) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}
