package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReservationCreated   EventType = "reservation_created"
	EventReservationCancelled EventType = "reservation_cancelled"
	EventTableDeleted         EventType = "table_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ActorID   int64     `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(eventType EventType, actorID int64, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: at,
		Payload:   payload,
	}
}

// ReservationPayload is carried by reservation_created and reservation_cancelled.
type ReservationPayload struct {
	ReservationID   int64  `json:"reservation_id"`
	TableID         int64  `json:"table_id"`
	UserID          int64  `json:"user_id"`
	ReservationDate string `json:"reservation_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	PartySize       int    `json:"party_size"`
}

// TableDeletedPayload payload.
type TableDeletedPayload struct {
	TableID int64  `json:"table_id"`
	Name    string `json:"name"`
}
