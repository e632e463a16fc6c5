package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eventflow/internal/domain"
)

// EventRepository encapsulates event persistence.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	List(ctx context.Context) ([]domain.Event, error)
}

type eventRepository struct {
	db DBTX
}

// NewEventRepository instantiates repository.
func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (name, event_date, location, description, price, organizer_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		event.Name,
		event.Date,
		event.Location,
		event.Description,
		event.Price,
		event.OrganizerID,
	).Scan(&event.ID)
}

func (r *eventRepository) List(ctx context.Context) ([]domain.Event, error) {
	const query = `
        SELECT id, name, event_date, location, description, price, organizer_id
        FROM events ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Event, error) {
		var e domain.Event
		err := row.Scan(&e.ID, &e.Name, &e.Date, &e.Location, &e.Description, &e.Price, &e.OrganizerID)
		return e, err
	})
}
