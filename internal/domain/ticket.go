package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusIssued  TicketStatus = "ISSUED"
	TicketStatusScanned TicketStatus = "SCANNED"
)

// Ticket is the admission credential for a registration.
type Ticket struct {
	ID             string       `json:"id"`
	QRCodeID       string       `json:"qrCodeId"`
	Status         TicketStatus `json:"status"`
	RegistrationID string       `json:"registrationId"`
}

// Scannable reports whether the ticket still awaits scanning at the door.
func (t Ticket) Scannable() bool {
	return t.Status == TicketStatusIssued
}
