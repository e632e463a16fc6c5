package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/eventflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEventCreated        EventType = "event_created"
	EventRegistrationCreated EventType = "registration_created"
	EventTicketIssued        EventType = "ticket_issued"
	EventTicketScanned       EventType = "ticket_scanned"
)

// Actor identifies who triggered an event.
type Actor struct {
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// Event represents an activity emitted by the application shell after a
// successful mutation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subjectID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// EventCreatedPayload payload.
type EventCreatedPayload struct {
	Name  string  `json:"name"`
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// RegistrationCreatedPayload payload.
type RegistrationCreatedPayload struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
}

// TicketIssuedPayload payload.
type TicketIssuedPayload struct {
	RegistrationID string `json:"registration_id"`
	QRCodeID       string `json:"qr_code_id"`
	Linked         bool   `json:"linked"`
}

// TicketScannedPayload payload.
type TicketScannedPayload struct {
	Status domain.TicketStatus `json:"status"`
}
