package shared

import "time"

// EventType identifies the kind of domain event flowing through the bus.
// Kept as a string enum (not an interface hierarchy) per the event-bus
// design note: explicit registration over magic subscription.
type EventType string

const (
	EventResourceCreated        EventType = "resource.created"
	EventResourceContentChanged EventType = "resource.content_changed"
	EventResourceClassified     EventType = "resource.classified"
	EventResourceQualityScored  EventType = "resource.quality_computed"
	EventResourceUpdated        EventType = "resource.updated"
	EventResourceDeleted        EventType = "resource.deleted"
	EventIngestionCompleted     EventType = "ingestion.completed"
	EventIngestionFailed        EventType = "ingestion.failed"
	EventAnnotationCreated      EventType = "annotation.created"
	EventSystemError            EventType = "system.error"
)

// Event is the payload every subscriber receives. Payload is a small
// serializable map, as required by spec §4.12 (required `timestamp` field,
// entity ids as strings).
type Event struct {
	Type      EventType
	Payload   map[string]any
	EmittedAt time.Time
}

// NewEvent stamps the event with the current clock time and an RFC3339 UTC
// timestamp embedded in the payload, as spec §4.12 requires of every event.
func NewEvent(clock Clock, typ EventType, payload map[string]any) Event {
	now := clock.Now()
	if payload == nil {
		payload = map[string]any{}
	}
	payload["timestamp"] = now.Format(time.RFC3339)
	return Event{Type: typ, Payload: payload, EmittedAt: now}
}
