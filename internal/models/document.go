package models

import (
	"encoding/json"
	"time"
)

// Local record keys. Each key holds a wholesale-replaced document.
const (
	RecordKeyClasses          = "danceClasses"
	RecordKeyPendingAdditions = "pendingDanceClasses"
	RecordKeyPendingEdits     = "pendingDanceEdits"
	RecordKeyPendingDeletions = "pendingDanceDeletions"
	RecordKeyLastModified     = "danceScheduler_lastModified"
	RecordKeyCustomStyles     = "customDanceStyles"
)

// Remote document keys, written as collection/document.
const (
	DocumentKeySchedule         = "danceSchedules/shared_schedule"
	DocumentKeyPendingAdditions = "pendingClasses/shared_pending"
	DocumentKeyPendingEdits     = "pendingEdits/shared_pending_edits"
	DocumentKeyPendingDeletions = "pendingDeletions/shared_pending_deletions"
)

// TimestampLayout is used for every lastUpdated / lastModified stamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts the stamp layout and plain RFC3339.
func ParseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(TimestampLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Document is one shared remote document. Data holds the collection payload.
type Document struct {
	Key         string          `json:"key"`
	Data        json.RawMessage `json:"data"`
	LastUpdated string          `json:"lastUpdated"`
}

// ScheduleDocument is the payload of the committed-class document.
type ScheduleDocument struct {
	UserID  string        `json:"userId"`
	Classes []ClassRecord `json:"classes"`
}

// PendingAdditionsDocument is the payload of the pending additions document.
type PendingAdditionsDocument struct {
	PendingClasses []PendingAddition `json:"pendingClasses"`
}

// PendingEditsDocument is the payload of the pending edits document.
type PendingEditsDocument struct {
	PendingEdits []PendingEdit `json:"pendingEdits"`
}

// PendingDeletionsDocument is the payload of the pending deletions document.
type PendingDeletionsDocument struct {
	PendingDeletions []PendingDeletion `json:"pendingDeletions"`
}

// BoardEventType classifies refresh notifications pushed to viewers.
type BoardEventType string

const (
	BoardEventClassesChanged BoardEventType = "classes_changed"
	BoardEventPendingChanged BoardEventType = "pending_changed"
)

// BoardEvent tells connected viewers to refresh dependent views.
type BoardEvent struct {
	Type   BoardEventType `json:"type"`
	Reason string         `json:"reason"`
	Count  int            `json:"count"`
	At     time.Time      `json:"at"`
}
