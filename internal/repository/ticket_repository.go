package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eventflow/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	List(ctx context.Context) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, qr_code_id, status, registration_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (qr_code_id, status, registration_id)
        VALUES ($1,$2,$3)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		ticket.QRCodeID,
		ticket.Status,
		ticket.RegistrationID,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTicket)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	query := `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + ticketColumns
	rows, err := r.db.Query(ctx, query, status, id)
	if err != nil {
		return nil, err
	}
	ticket, err := pgx.CollectExactlyOneRow(rows, scanTicket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTicket(row pgx.CollectableRow) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.QRCodeID, &t.Status, &t.RegistrationID)
	return t, err
}
