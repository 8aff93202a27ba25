package contact

import (
	"context"
	"time"

	"rinknet/pkg/domain"
)

// Store persists contact requests. Implementations must enforce pair
// uniqueness themselves: at most one non-rejected request may exist per
// (kind, account pair, player) regardless of direction, and Create returns
// sentinel.ErrConflict when one already does.
type Store interface {
	// Create inserts a pending request.
	Create(ctx context.Context, req *ContactRequest) error

	// Get returns one request by id, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.ContactRequestID) (*ContactRequest, error)

	// FindBetween returns the most recent request between the two accounts
	// for the kind and player subject, in either direction, including
	// rejected ones. Returns sentinel.ErrNotFound when none exists.
	FindBetween(ctx context.Context, kind Kind, a, b domain.AccountID, playerID domain.PlayerID) (*ContactRequest, error)

	// UpdateStatus transitions a request from one status to another. Returns
	// sentinel.ErrNotFound for unknown ids and sentinel.ErrInvalidState when
	// the current status does not match from.
	UpdateStatus(ctx context.Context, id domain.ContactRequestID, from, to Status, at time.Time) error

	// ListForAccount returns the requests the account is a party to, newest
	// first, optionally narrowed to one kind.
	ListForAccount(ctx context.Context, accountID domain.AccountID, kind Kind) ([]*ContactRequest, error)

	// HasApprovedBetween reports whether any approved request exists between
	// the two accounts, in either direction and of any kind.
	HasApprovedBetween(ctx context.Context, a, b domain.AccountID) (bool, error)
}
