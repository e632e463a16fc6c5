package data

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/repository"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

// PostgresGateway serves the data capability set from a Postgres database.
type PostgresGateway struct {
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	tickets       repository.TicketRepository
}

// PostgresDependencies bundles repositories for the gateway.
type PostgresDependencies struct {
	EventRepo        repository.EventRepository
	RegistrationRepo repository.RegistrationRepository
	TicketRepo       repository.TicketRepository
}

// NewPostgresGateway builds the gateway.
func NewPostgresGateway(deps PostgresDependencies) *PostgresGateway {
	return &PostgresGateway{
		events:        deps.EventRepo,
		registrations: deps.RegistrationRepo,
		tickets:       deps.TicketRepo,
	}
}

func (g *PostgresGateway) ListEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := g.events.List(ctx)
	if err != nil {
		return nil, mapStoreError("list events", err)
	}
	return events, nil
}

func (g *PostgresGateway) ListRegistrations(ctx context.Context) ([]domain.Registration, error) {
	regs, err := g.registrations.List(ctx)
	if err != nil {
		return nil, mapStoreError("list registrations", err)
	}
	return regs, nil
}

func (g *PostgresGateway) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := g.tickets.List(ctx)
	if err != nil {
		return nil, mapStoreError("list tickets", err)
	}
	return tickets, nil
}

func (g *PostgresGateway) CreateEvent(ctx context.Context, in EventInput) (*domain.Event, error) {
	price := in.Price
	event := &domain.Event{
		Name:        in.Name,
		Date:        in.Date,
		Location:    in.Location,
		Description: in.Description,
		Price:       &price,
		OrganizerID: in.OrganizerID,
	}
	if err := g.events.Create(ctx, event); err != nil {
		return nil, mapStoreError("create event", err)
	}
	return event, nil
}

func (g *PostgresGateway) CreateRegistration(ctx context.Context, in RegistrationInput) (*domain.Registration, error) {
	reg := &domain.Registration{
		EventID:          in.EventID,
		UserID:           in.UserID,
		RegistrationDate: in.RegistrationDate,
		TicketID:         in.TicketID,
	}
	if err := g.registrations.Create(ctx, reg); err != nil {
		return nil, mapStoreError("create registration", err)
	}
	return reg, nil
}

func (g *PostgresGateway) CreateTicket(ctx context.Context, in TicketInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		QRCodeID:       in.QRCodeID,
		Status:         in.Status,
		RegistrationID: in.RegistrationID,
	}
	if err := g.tickets.Create(ctx, ticket); err != nil {
		return nil, mapStoreError("create ticket", err)
	}
	return ticket, nil
}

func (g *PostgresGateway) UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := g.tickets.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		return nil, mapStoreError("update ticket", err)
	}
	return ticket, nil
}

func (g *PostgresGateway) LinkRegistrationTicket(ctx context.Context, registrationID, ticketID string) (*domain.Registration, error) {
	reg, err := g.registrations.SetTicket(ctx, registrationID, ticketID)
	if err != nil {
		return nil, mapStoreError("link ticket", err)
	}
	return reg, nil
}

// foreign_key_violation and check_violation are caller mistakes.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func mapStoreError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(op+": record", nil)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return apperrors.NewValidationError(op+": referenced record does not exist", map[string]any{"constraint": pgErr.ConstraintName})
		case pgCheckViolation:
			return apperrors.NewValidationError(op+": value out of range", map[string]any{"constraint": pgErr.ConstraintName})
		}
	}
	return apperrors.NewUpstreamError(op+" failed", err)
}
