// Package data wraps the external store that owns events, registrations and
// tickets.
package data

import (
	"context"

	"github.com/spec-kit/eventflow/internal/domain"
)

// EventInput is the field set for a new event.
type EventInput struct {
	Name        string  `json:"name"`
	Date        string  `json:"date"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	OrganizerID string  `json:"organizerId"`
}

// RegistrationInput is the field set for a new registration.
type RegistrationInput struct {
	EventID          string  `json:"eventId"`
	UserID           string  `json:"userId"`
	RegistrationDate string  `json:"registrationDate"`
	TicketID         *string `json:"ticketId"`
}

// TicketInput is the field set for a new ticket.
type TicketInput struct {
	QRCodeID       string              `json:"qrCodeId"`
	Status         domain.TicketStatus `json:"status"`
	RegistrationID string              `json:"registrationId"`
}

// Gateway is the capability set required from the data collaborator.
type Gateway interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ListRegistrations(ctx context.Context) ([]domain.Registration, error)
	ListTickets(ctx context.Context) ([]domain.Ticket, error)

	CreateEvent(ctx context.Context, in EventInput) (*domain.Event, error)
	CreateRegistration(ctx context.Context, in RegistrationInput) (*domain.Registration, error)
	CreateTicket(ctx context.Context, in TicketInput) (*domain.Ticket, error)

	UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error)
	LinkRegistrationTicket(ctx context.Context, registrationID, ticketID string) (*domain.Registration, error)
}
