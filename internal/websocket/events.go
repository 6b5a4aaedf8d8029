package websocket

import (
	"log"
	"time"

	"github.com/fitcal/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastEventCreated sends an event.created message.
func (b *EventBroadcaster) BroadcastEventCreated(ev *models.Event) {
	b.broadcast(NewMessage(TypeEventCreated, EventPayload{Event: ev}))
}

// BroadcastEventUpdated sends an event.updated message.
func (b *EventBroadcaster) BroadcastEventUpdated(ev *models.Event) {
	b.broadcast(NewMessage(TypeEventUpdated, EventPayload{Event: ev}))
}

// BroadcastEventDeleted sends an event.deleted message.
func (b *EventBroadcaster) BroadcastEventDeleted(id string, typ models.EventType, title string) {
	b.broadcast(NewMessage(TypeEventDeleted, EventRefPayload{
		EventID: id,
		Type:    typ,
		Title:   title,
	}))
}

// BroadcastEventCompleted sends an event.completed message.
func (b *EventBroadcaster) BroadcastEventCompleted(id string, typ models.EventType, title string) {
	b.broadcast(NewMessage(TypeEventCompleted, EventRefPayload{
		EventID: id,
		Type:    typ,
		Title:   title,
	}))
}

// BroadcastReminderScheduled sends a reminder.scheduled message.
func (b *EventBroadcaster) BroadcastReminderScheduled(eventID, notificationID string, fireAt time.Time) {
	b.broadcast(NewMessage(TypeReminderScheduled, ReminderScheduledPayload{
		EventID:        eventID,
		NotificationID: notificationID,
		FireAt:         fireAt,
	}))
}

// BroadcastReminderFired sends a reminder.fired message.
func (b *EventBroadcaster) BroadcastReminderFired(p ReminderFiredPayload) {
	b.broadcast(NewMessage(TypeReminderFired, p))
}

// BroadcastNotification sends a generic notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
