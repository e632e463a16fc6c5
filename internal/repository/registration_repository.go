package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eventflow/internal/domain"
)

// RegistrationRepository encapsulates registration persistence.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	List(ctx context.Context) ([]domain.Registration, error)
	SetTicket(ctx context.Context, registrationID, ticketID string) (*domain.Registration, error)
}

type registrationRepository struct {
	db DBTX
}

// NewRegistrationRepository instantiates repository.
func NewRegistrationRepository(db DBTX) RegistrationRepository {
	return &registrationRepository{db: db}
}

const registrationColumns = `id, event_id, user_id, registration_date, ticket_id`

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	const query = `
        INSERT INTO registrations (event_id, user_id, registration_date, ticket_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		reg.EventID,
		reg.UserID,
		reg.RegistrationDate,
		reg.TicketID,
	).Scan(&reg.ID)
}

func (r *registrationRepository) List(ctx context.Context) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRegistration)
}

func (r *registrationRepository) SetTicket(ctx context.Context, registrationID, ticketID string) (*domain.Registration, error) {
	query := `UPDATE registrations SET ticket_id=$1 WHERE id=$2 RETURNING ` + registrationColumns
	rows, err := r.db.Query(ctx, query, ticketID, registrationID)
	if err != nil {
		return nil, err
	}
	reg, err := pgx.CollectExactlyOneRow(rows, scanRegistration)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func scanRegistration(row pgx.CollectableRow) (domain.Registration, error) {
	var reg domain.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegistrationDate, &reg.TicketID)
	return reg, err
}
