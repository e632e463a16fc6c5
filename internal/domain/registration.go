package domain

// Registration records an attendee signing up for an event.
type Registration struct {
	ID               string  `json:"id"`
	EventID          string  `json:"eventId"`
	UserID           string  `json:"userId"`
	RegistrationDate string  `json:"registrationDate"`
	TicketID         *string `json:"ticketId"`
}

// HasTicket reports whether a ticket has been linked to the registration.
func (r Registration) HasTicket() bool {
	return r.TicketID != nil && *r.TicketID != ""
}
