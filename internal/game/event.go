package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemEventPrefix marks events owned by engine systems rather than a game.
const SystemEventPrefix = "SYS_"

// Event is an immutable fact produced by executing a command. Events are the
// only vehicle for state change and carry JSON payloads so logs replay as-is.
type Event struct {
	Type              string          `json:"type"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	Timestamp         int64           `json:"timestamp"`
	SourceCommandType string          `json:"sourceCommandType,omitempty"`
}

// NewEvent builds an event, marshalling the payload.
func NewEvent(eventType string, payload any, timestamp int64) (Event, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw, Timestamp: timestamp}, nil
}

// MustEvent is NewEvent for payload types that always marshal (plain structs).
func MustEvent(eventType string, payload any, timestamp int64) Event {
	evt, err := NewEvent(eventType, payload, timestamp)
	if err != nil {
		panic(err)
	}
	return evt
}

// IsSystemEvent reports whether the event type belongs to an engine system.
func IsSystemEvent(eventType string) bool {
	return strings.HasPrefix(eventType, SystemEventPrefix)
}

// IsInternalEvent reports events that must not leave the process (they carry
// full unfiltered state).
func IsInternalEvent(eventType string) bool {
	return eventType == EventUndoSnapshot || eventType == EventUndoRestored || eventType == EventUndoDiscarded
}

// EventProjector is implemented by games whose events carry hidden
// information. ProjectEvent returns the event as viewer may see it, or false
// when viewer must not see it at all.
type EventProjector interface {
	ProjectEvent(evt Event, viewer PlayerID) (Event, bool)
}

// EventsFor returns the events viewer may see. Internal events are dropped
// and the rest pass through p when it is non-nil.
func EventsFor(events []Event, viewer PlayerID, p EventProjector) []Event {
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		if IsInternalEvent(evt.Type) {
			continue
		}
		if p != nil {
			var ok bool
			if evt, ok = p.ProjectEvent(evt, viewer); !ok {
				continue
			}
		}
		out = append(out, evt)
	}
	return out
}

// PublicEvents drops internal events from an event stream.
func PublicEvents(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		if IsInternalEvent(evt.Type) {
			continue
		}
		out = append(out, evt)
	}
	return out
}
