package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventflow/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

var (
	ticketCols       = []string{"id", "qr_code_id", "status", "registration_id"}
	registrationCols = []string{"id", "event_id", "user_id", "registration_date", "ticket_id"}
)

func TestEventRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	price := 25.0
	event := &domain.Event{Name: "Launch", Date: "2025-06-01", Location: "Hall A", Price: &price, OrganizerID: "org@x.com"}

	mock.ExpectQuery("INSERT INTO events").
		WithArgs("Launch", "2025-06-01", "Hall A", "", &price, "org@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("e1"))

	require.NoError(t, NewEventRepository(mock).Create(context.Background(), event))
	assert.Equal(t, "e1", event.ID)
}

func TestEventRepositoryList(t *testing.T) {
	mock := newMock(t)
	price := 10.0
	mock.ExpectQuery("SELECT id, name, event_date").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "event_date", "location", "description", "price", "organizer_id"}).
			AddRow("e1", "Go Meetup", "2025-06-01", "Hall A", "talks", &price, "org@x.com"))

	events, err := NewEventRepository(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Go Meetup", events[0].Name)
	require.NotNil(t, events[0].Price)
	assert.Equal(t, 10.0, *events[0].Price)
}

func TestRegistrationRepositorySetTicket(t *testing.T) {
	mock := newMock(t)
	ticketID := "t1"
	mock.ExpectQuery("UPDATE registrations SET ticket_id").
		WithArgs("t1", "r1").
		WillReturnRows(pgxmock.NewRows(registrationCols).
			AddRow("r1", "e1", "fan@x.com", "2025-03-14T09:26:53.589Z", &ticketID))

	reg, err := NewRegistrationRepository(mock).SetTicket(context.Background(), "r1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "r1", reg.ID)
	assert.True(t, reg.HasTicket())
	assert.Equal(t, "t1", *reg.TicketID)
}

func TestRegistrationRepositorySetTicketMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("UPDATE registrations SET ticket_id").
		WithArgs("t1", "r9").
		WillReturnRows(pgxmock.NewRows(registrationCols))

	reg, err := NewRegistrationRepository(mock).SetTicket(context.Background(), "r9", "t1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Nil(t, reg)
}

func TestTicketRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	ticket := &domain.Ticket{QRCodeID: "QR-1", Status: domain.TicketStatusIssued, RegistrationID: "r1"}

	mock.ExpectQuery("INSERT INTO tickets").
		WithArgs("QR-1", domain.TicketStatusIssued, "r1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("t1"))

	require.NoError(t, NewTicketRepository(mock).Create(context.Background(), ticket))
	assert.Equal(t, "t1", ticket.ID)
}

func TestTicketRepositoryUpdateStatus(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("UPDATE tickets SET status").
		WithArgs(domain.TicketStatusScanned, "t1").
		WillReturnRows(pgxmock.NewRows(ticketCols).AddRow("t1", "QR-1", domain.TicketStatusScanned, "r1"))

	ticket, err := NewTicketRepository(mock).UpdateStatus(context.Background(), "t1", domain.TicketStatusScanned)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusScanned, ticket.Status)
	assert.False(t, ticket.Scannable())
}

func TestTicketRepositoryUpdateStatusMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("UPDATE tickets SET status").
		WithArgs(domain.TicketStatusScanned, "t9").
		WillReturnRows(pgxmock.NewRows(ticketCols))

	_, err := NewTicketRepository(mock).UpdateStatus(context.Background(), "t9", domain.TicketStatusScanned)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
