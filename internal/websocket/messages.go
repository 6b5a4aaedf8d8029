package websocket

import (
	"encoding/json"
	"time"

	"github.com/fitcal/backend/internal/storage/models"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeEventCreated      MessageType = "event.created"
	TypeEventUpdated      MessageType = "event.updated"
	TypeEventDeleted      MessageType = "event.deleted"
	TypeEventCompleted    MessageType = "event.completed"
	TypeReminderScheduled MessageType = "reminder.scheduled"
	TypeReminderFired     MessageType = "reminder.fired"
	TypeNotification      MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventPayload is the payload for event.created and event.updated messages.
type EventPayload struct {
	Event *models.Event `json:"event"`
}

// EventRefPayload is the payload for event.deleted and event.completed messages.
type EventRefPayload struct {
	EventID string           `json:"event_id"`
	Type    models.EventType `json:"event_type,omitempty"`
	Title   string           `json:"title,omitempty"`
}

// ReminderScheduledPayload is the payload for reminder.scheduled messages.
type ReminderScheduledPayload struct {
	EventID        string    `json:"event_id"`
	NotificationID string    `json:"notification_id"`
	FireAt         time.Time `json:"fire_at"`
}

// ReminderFiredPayload is the payload for reminder.fired messages. Kind names
// the dispatch branch the reminder was scheduled through (workout, coaching,
// meal, supplement or generic) and RefID the domain object it points at.
type ReminderFiredPayload struct {
	NotificationID string    `json:"notification_id"`
	Kind           string    `json:"kind"`
	RefID          string    `json:"ref_id,omitempty"`
	Title          string    `json:"title"`
	Body           string    `json:"body,omitempty"`
	FireAt         time.Time `json:"fire_at"`
}

// NotificationPayload is the payload for generic notification messages.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}
