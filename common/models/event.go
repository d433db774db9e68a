// Package models defines the shared data types that flow between LayerLens
// services: captured analytics events and their validity rules.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PersistedSourceSuffix marks events rehydrated from a persisted snapshot
// rather than captured live.
const PersistedSourceSuffix = " (persisted)"

// CapturedEvent is the canonical unit flowing through the system: one
// normalized push into a monitored analytics queue.
type CapturedEvent struct {
	ID         string                 `json:"id"`
	Timestamp  int64                  `json:"timestamp"` // epoch milliseconds at capture
	EventName  string                 `json:"event_name"`
	Data       map[string]interface{} `json:"data"`
	Source     string                 `json:"source"` // monitored queue name
	RawData    interface{}            `json:"raw_data"`
	QueueIndex int                    `json:"queue_index"`
	GroupID    string                 `json:"group_id,omitempty"` // assigned by grouping, never persisted
}

// NewCapturedEvent constructs an event at capture time. The ID combines a
// high-resolution timestamp with a random suffix: sortable enough for
// insertion-order tie-breaking, unique across tabs.
func NewCapturedEvent(name string, payload map[string]interface{}, source string, queueIndex int) CapturedEvent {
	now := time.Now()
	return CapturedEvent{
		ID:         fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8]),
		Timestamp:  now.UnixMilli(),
		EventName:  name,
		Data:       payload,
		Source:     source,
		RawData:    payload,
		QueueIndex: queueIndex,
	}
}

// SerializedData returns the event payload as a JSON string, used by
// free-text search. Returns "" when the payload cannot be marshaled.
func (e CapturedEvent) SerializedData() string {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return ""
	}
	return string(data)
}

// Time returns the capture timestamp as a time.Time.
func (e CapturedEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// IsPersisted reports whether this event was rehydrated from a snapshot.
func (e CapturedEvent) IsPersisted() bool {
	return strings.HasSuffix(e.Source, PersistedSourceSuffix)
}

// ValidEvent is the narrowed form of an arbitrary queue payload that passed
// the shape check: a non-nil object whose "event" field is a non-empty
// string after trimming.
type ValidEvent struct {
	Name    string
	Payload map[string]interface{}
}

// ValidateEventPayload is the shape predicate for untrusted queue pushes.
// A payload is valid iff it is a non-nil, non-array object and its "event"
// field is a string with non-whitespace content after trimming. Anything
// else is rejected; rejection is an expected filtering outcome, not an error.
func ValidateEventPayload(v interface{}) (ValidEvent, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok || obj == nil {
		return ValidEvent{}, false
	}
	raw, ok := obj["event"]
	if !ok {
		return ValidEvent{}, false
	}
	name, ok := raw.(string)
	if !ok {
		return ValidEvent{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidEvent{}, false
	}
	return ValidEvent{Name: name, Payload: obj}, true
}
