package moderation

import (
	"context"
	"time"

	"rinknet/pkg/domain"
)

// Store persists reviews and disputes. OpenDispute must hide the review and
// insert the dispute atomically; implementations enforce the one-pending-
// dispute-per-review rule themselves and return sentinel.ErrConflict when a
// pending dispute already exists.
type Store interface {
	CreateReview(ctx context.Context, r *Review) error

	// GetReview returns one review, or sentinel.ErrNotFound.
	GetReview(ctx context.Context, id domain.ReviewID) (*Review, error)

	// ListReviews returns a subject's reviews, newest first. Hidden reviews
	// are included only when includeHidden is set.
	ListReviews(ctx context.Context, kind ReviewKind, subjectID string, includeHidden bool) ([]*Review, error)

	// VisibleSummary aggregates a subject's visible reviews. A subject with
	// none returns (0, 0, nil).
	VisibleSummary(ctx context.Context, kind ReviewKind, subjectID string) (avg float64, count int, err error)

	// SetReviewVisibility flips a review's visibility, or sentinel.ErrNotFound.
	SetReviewVisibility(ctx context.Context, id domain.ReviewID, v Visibility) error

	// OpenDispute hides the review and creates the pending dispute in one
	// step. Returns sentinel.ErrNotFound when the review does not exist and
	// sentinel.ErrConflict when a pending dispute already challenges it.
	OpenDispute(ctx context.Context, d *Dispute) error

	// GetDispute returns one dispute, or sentinel.ErrNotFound.
	GetDispute(ctx context.Context, id domain.DisputeID) (*Dispute, error)

	// UpdateDisputeStatus transitions a dispute. Returns sentinel.ErrNotFound
	// for unknown ids and sentinel.ErrInvalidState when the current status
	// does not match from.
	UpdateDisputeStatus(ctx context.Context, id domain.DisputeID, from, to DisputeStatus, at time.Time) error

	// ListDisputesByAccount returns the account's disputes, newest first.
	ListDisputesByAccount(ctx context.Context, accountID domain.AccountID) ([]*Dispute, error)

	// ListDisputes returns the admin feed, newest first, filtered by kind
	// and status when non-empty.
	ListDisputes(ctx context.Context, kind ReviewKind, status DisputeStatus) ([]*Dispute, error)
}
