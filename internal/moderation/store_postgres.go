package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// PostgresStore persists reviews and disputes in PostgreSQL. The
// one-pending-dispute-per-review rule rides on a partial unique index over
// review_id restricted to pending rows; OpenDispute hides the review and
// inserts the dispute in one transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed moderation store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reviewColumns = `id, kind, author_id, subject_id, rating, text, visibility, created_at`

func (s *PostgresStore) CreateReview(ctx context.Context, r *Review) error {
	if r == nil {
		return fmt.Errorf("review is required")
	}
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), string(r.Kind), uuid.UUID(r.AuthorID), r.SubjectID,
		r.Rating, r.Text, string(r.Visibility), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReview(ctx context.Context, id domain.ReviewID) (*Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, uuid.UUID(id))
	r, err := scanReview(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListReviews(ctx context.Context, kind ReviewKind, subjectID string, includeHidden bool) ([]*Review, error) {
	query := `
		SELECT ` + reviewColumns + ` FROM reviews
		WHERE kind = $1 AND subject_id = $2 AND ($3 OR visibility = 'visible')
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(kind), subjectID, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []*Review
	for rows.Next() {
		r, err := scanReview(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) VisibleSummary(ctx context.Context, kind ReviewKind, subjectID string) (float64, int, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT avg(rating), count(*) FROM reviews
		WHERE kind = $1 AND subject_id = $2 AND visibility = 'visible'`,
		string(kind), subjectID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("summarize reviews: %w", err)
	}
	return avg.Float64, count, nil
}

func (s *PostgresStore) SetReviewVisibility(ctx context.Context, id domain.ReviewID, v Visibility) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET visibility = $2 WHERE id = $1`, uuid.UUID(id), string(v))
	if err != nil {
		return fmt.Errorf("update review visibility: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) OpenDispute(ctx context.Context, d *Dispute) error {
	if d == nil {
		return fmt.Errorf("dispute is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin open dispute: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE reviews SET visibility = 'hidden' WHERE id = $1`, uuid.UUID(d.ReviewID))
	if err != nil {
		return fmt.Errorf("hide review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO disputes (id, kind, review_id, disputant_id, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(d.ID), string(d.Kind), uuid.UUID(d.ReviewID), uuid.UUID(d.DisputantID),
		d.Reason, string(d.Status), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create dispute: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit open dispute: %w", err)
	}
	return nil
}

const disputeColumns = `id, kind, review_id, disputant_id, reason, status, created_at, updated_at`

func (s *PostgresStore) GetDispute(ctx context.Context, id domain.DisputeID) (*Dispute, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, uuid.UUID(id))
	d, err := scanDispute(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get dispute: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) UpdateDisputeStatus(ctx context.Context, id domain.DisputeID, from, to DisputeStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE disputes SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		uuid.UUID(id), string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, getErr := s.GetDispute(ctx, id); errors.Is(getErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListDisputesByAccount(ctx context.Context, accountID domain.AccountID) ([]*Dispute, error) {
	return s.listDisputes(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE disputant_id = $1 ORDER BY created_at DESC`, uuid.UUID(accountID))
}

func (s *PostgresStore) ListDisputes(ctx context.Context, kind ReviewKind, status DisputeStatus) ([]*Dispute, error) {
	return s.listDisputes(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`, string(kind), string(status))
}

func (s *PostgresStore) listDisputes(ctx context.Context, query string, args ...any) ([]*Dispute, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()

	var out []*Dispute
	for rows.Next() {
		d, err := scanDispute(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan dispute: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate disputes: %w", err)
	}
	return out, nil
}

func scanReview(scan func(dest ...any) error) (*Review, error) {
	var (
		r          Review
		id, author uuid.UUID
		kind, vis  string
	)
	err := scan(&id, &kind, &author, &r.SubjectID, &r.Rating, &r.Text, &vis, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = domain.ReviewID(id)
	r.Kind = ReviewKind(kind)
	r.AuthorID = domain.AccountID(author)
	r.Visibility = Visibility(vis)
	return &r, nil
}

func scanDispute(scan func(dest ...any) error) (*Dispute, error) {
	var (
		d                       Dispute
		id, reviewID, disputant uuid.UUID
		kind, status            string
	)
	err := scan(&id, &kind, &reviewID, &disputant, &d.Reason, &status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.ID = domain.DisputeID(id)
	d.Kind = ReviewKind(kind)
	d.ReviewID = domain.ReviewID(reviewID)
	d.DisputantID = domain.AccountID(disputant)
	d.Status = DisputeStatus(status)
	return &d, nil
}
