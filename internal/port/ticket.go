package port

import (
	"context"

	"supportagent/internal/domain"
)

// TicketRepository is the read-only view the assistant needs.
// Get returns (nil, nil) when the ticket does not exist.
type TicketRepository interface {
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context) ([]domain.Ticket, error)
}

// TicketStore adds the maintenance operations used by the API and CLI.
type TicketStore interface {
	TicketRepository

	Create(ctx context.Context, t domain.Ticket) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id, status string) error
	AddNote(ctx context.Context, id, note string) error
	Search(ctx context.Context, query string) ([]domain.Ticket, error)
	ListByCustomer(ctx context.Context, customer string) ([]domain.Ticket, error)
	ListOpen(ctx context.Context) ([]domain.Ticket, error)
	Close() error
}
