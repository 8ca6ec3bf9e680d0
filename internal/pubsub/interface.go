package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrBrokerUnavailable marks publish or subscribe failures caused by the
// broker being unreachable. Callers treat it as non-fatal: the message is
// already durable by the time it is announced.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// RoomChannel returns the broker channel for a room. Channels map 1:1 to
// rooms and exist only while someone publishes or subscribes.
func RoomChannel(roomID string) string {
	return fmt.Sprintf("chat:room:%s", roomID)
}

// Event is the envelope every broker message travels in. Payload is the
// JSON-encoded chat message and must round-trip exactly between the
// publishing and the subscribing process.
type Event struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventTypeChatMessage is the only event type the relay publishes.
const EventTypeChatMessage = "chat_message"

// NewEvent creates an event with the current timestamp.
func NewEvent(eventType, roomID string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		RoomID:    roomID,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher announces events on a channel. Publish blocks until the
// broker has accepted the event for distribution, not until delivery.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Subscriber opens and closes per-channel subscriptions. The returned
// channel is closed when the subscription ends.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan *Event, error)
	Unsubscribe(ctx context.Context, channel string) error
}

// PubSub combines Publisher and Subscriber. One instance is shared
// process-wide and must tolerate concurrent publish and subscribe calls.
type PubSub interface {
	Publisher
	Subscriber
	Close() error
}
