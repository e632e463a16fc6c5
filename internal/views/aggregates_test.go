package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/eventflow/internal/domain"
)

func price(v float64) *float64 { return &v }

func regs(eventID string, n int) []domain.Registration {
	out := make([]domain.Registration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Registration{ID: eventID + "-r", EventID: eventID, UserID: "u"})
	}
	return out
}

func TestTotalRevenue(t *testing.T) {
	tests := []struct {
		name   string
		events []domain.Event
		regs   []domain.Registration
		want   float64
	}{
		{"no events", nil, nil, 0},
		{"one paid event", []domain.Event{{ID: "e1", Price: price(25)}}, regs("e1", 3), 75},
		{"free and unpriced", []domain.Event{{ID: "e1", Price: price(0)}, {ID: "e2"}}, append(regs("e1", 2), regs("e2", 4)...), 0},
		{"registrations for unknown events", []domain.Event{{ID: "e1", Price: price(10)}}, append(regs("e1", 1), regs("gone", 5)...), 10},
		{"mixed", []domain.Event{{ID: "e1", Price: price(12.5)}, {ID: "e2", Price: price(4)}}, append(regs("e1", 2), regs("e2", 1)...), 29},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, TotalRevenue(tc.events, tc.regs), 1e-9)
		})
	}
}

func TestRegistrantCounts(t *testing.T) {
	events := []domain.Event{{ID: "e1", Name: "A"}, {ID: "e2", Name: "B"}}

	got := RegistrantCounts(events, append(regs("e2", 2), regs("e1", 1)...))

	assert.Equal(t, []EventCount{{Event: events[0], Count: 1}, {Event: events[1], Count: 2}}, got)
	assert.Empty(t, RegistrantCounts(nil, regs("e1", 1)))
}

func TestRegisteredEvents(t *testing.T) {
	ticket := "t9"
	events := []domain.Event{{ID: "e1", Name: "A"}, {ID: "e2", Name: "B"}}
	registrations := []domain.Registration{
		{ID: "r1", EventID: "e1", UserID: "me"},
		{ID: "r2", EventID: "e2", UserID: "someone-else"},
		{ID: "r3", EventID: "e2", UserID: "me", TicketID: &ticket},
		{ID: "r4", EventID: "deleted", UserID: "me"},
	}

	got := RegisteredEvents(&domain.User{Username: "me"}, events, registrations)

	assert.Equal(t, []RegisteredEvent{
		{Event: events[0], RegistrationID: "r1"},
		{Event: events[1], RegistrationID: "r3", TicketID: "t9"},
	}, got)
	assert.False(t, got[0].HasTicket())
	assert.True(t, got[1].HasTicket())
	assert.Nil(t, RegisteredEvents(nil, events, registrations))
}
