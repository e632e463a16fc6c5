package views

import "github.com/spec-kit/eventflow/internal/domain"

// EventCount pairs an event with its number of registrations.
type EventCount struct {
	Event domain.Event
	Count int
}

// RegisteredEvent is one of the user's registrations joined with its event.
type RegisteredEvent struct {
	Event          domain.Event
	RegistrationID string
	TicketID       string
}

// HasTicket reports whether a ticket was linked to the registration.
func (r RegisteredEvent) HasTicket() bool {
	return r.TicketID != ""
}

// TotalRevenue sums price times registrations over all events. Events
// without a price count as free.
func TotalRevenue(events []domain.Event, registrations []domain.Registration) float64 {
	counts := countByEvent(registrations)
	var total float64
	for _, e := range events {
		total += e.PriceOrZero() * float64(counts[e.ID])
	}
	return total
}

// RegistrantCounts returns the registration count of every event, in event order.
func RegistrantCounts(events []domain.Event, registrations []domain.Registration) []EventCount {
	counts := countByEvent(registrations)
	out := make([]EventCount, 0, len(events))
	for _, e := range events {
		out = append(out, EventCount{Event: e, Count: counts[e.ID]})
	}
	return out
}

// RegisteredEvents joins the user's registrations with event details.
// Registrations whose event is unknown are skipped.
func RegisteredEvents(user *domain.User, events []domain.Event, registrations []domain.Registration) []RegisteredEvent {
	if user == nil {
		return nil
	}
	byID := make(map[string]domain.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	var out []RegisteredEvent
	for _, r := range registrations {
		if r.UserID != user.Username {
			continue
		}
		e, ok := byID[r.EventID]
		if !ok {
			continue
		}
		item := RegisteredEvent{Event: e, RegistrationID: r.ID}
		if r.HasTicket() {
			item.TicketID = *r.TicketID
		}
		out = append(out, item)
	}
	return out
}

func countByEvent(registrations []domain.Registration) map[string]int {
	counts := make(map[string]int)
	for _, r := range registrations {
		counts[r.EventID]++
	}
	return counts
}
