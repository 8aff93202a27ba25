package support

import (
	"context"
	"time"

	"rinknet/pkg/domain"
)

// Store persists support tickets. Thread messages live in the shared thread
// store, not here.
type Store interface {
	Create(ctx context.Context, t *Ticket) error

	// Get returns one ticket, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.TicketID) (*Ticket, error)

	// SetStatus updates a ticket's status, or sentinel.ErrNotFound.
	SetStatus(ctx context.Context, id domain.TicketID, status TicketStatus, at time.Time) error

	// ListByAccount returns the account's tickets, newest first.
	ListByAccount(ctx context.Context, accountID domain.AccountID) ([]*Ticket, error)

	// List returns all tickets, newest first, filtered by status when
	// non-empty.
	List(ctx context.Context, status TicketStatus) ([]*Ticket, error)
}
