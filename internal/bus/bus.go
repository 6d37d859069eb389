// Package bus carries query events between GovAI processes. The memory
// implementation fans events out in-process; the Kafka implementation lets a
// separate worker persist query records shipped by the API servers.
package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "query.processed").
	Type string `json:"type"`

	// Source is the process that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created, in unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the JSON-encoded event data.
	Payload json.RawMessage `json:"payload"`
}

// Topics and event types.
const (
	TopicQueryProcessed = "govai.query.processed"

	EventQueryProcessed = "query.processed"
)

// NewEvent encodes payload into a new event.
func NewEvent(eventType, source string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UnixMilli(),
		Payload:   data,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
