package contact

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

// PostgresStore persists contact requests in PostgreSQL. Pair uniqueness is
// enforced by a partial unique index over the normalized account pair and
// player subject, restricted to non-rejected rows. Absent profile and player
// ids are stored as the zero uuid so the index stays total.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed contact request store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const contactColumns = `id, kind, requester_account_id, target_account_id, coach_id,
	parent_id, requester_parent_id, player_id, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, req *ContactRequest) error {
	if req == nil {
		return fmt.Errorf("contact request is required")
	}
	query := `
		INSERT INTO contact_requests (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(req.ID), string(req.Kind),
		uuid.UUID(req.RequesterAccountID), uuid.UUID(req.TargetAccountID),
		uuid.UUID(req.CoachID), uuid.UUID(req.ParentID), uuid.UUID(req.RequesterParentID),
		uuid.UUID(req.PlayerID), string(req.Status), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create contact request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ContactRequestID) (*ContactRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contact_requests WHERE id = $1`, uuid.UUID(id))
	req, err := scanContactRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get contact request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) FindBetween(ctx context.Context, kind Kind, a, b domain.AccountID, playerID domain.PlayerID) (*ContactRequest, error) {
	query := `
		SELECT ` + contactColumns + ` FROM contact_requests
		WHERE kind = $1
		  AND player_id = $4
		  AND ((requester_account_id = $2 AND target_account_id = $3)
		    OR (requester_account_id = $3 AND target_account_id = $2))
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query,
		string(kind), uuid.UUID(a), uuid.UUID(b), uuid.UUID(playerID))
	req, err := scanContactRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find contact request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.ContactRequestID, from, to Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE contact_requests SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		uuid.UUID(id), string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("update contact request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, getErr := s.Get(ctx, id); errors.Is(getErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListForAccount(ctx context.Context, accountID domain.AccountID, kind Kind) ([]*ContactRequest, error) {
	query := `
		SELECT ` + contactColumns + ` FROM contact_requests
		WHERE (requester_account_id = $1 OR target_account_id = $1)
		  AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(accountID), string(kind))
	if err != nil {
		return nil, fmt.Errorf("list contact requests: %w", err)
	}
	defer rows.Close()

	var out []*ContactRequest
	for rows.Next() {
		req, err := scanContactRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan contact request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) HasApprovedBetween(ctx context.Context, a, b domain.AccountID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM contact_requests
			WHERE status = 'approved'
			  AND ((requester_account_id = $1 AND target_account_id = $2)
			    OR (requester_account_id = $2 AND target_account_id = $1))
		)`, uuid.UUID(a), uuid.UUID(b)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check approved pair: %w", err)
	}
	return exists, nil
}

func scanContactRequest(scan func(dest ...any) error) (*ContactRequest, error) {
	var (
		req                            ContactRequest
		id, requester, target          uuid.UUID
		coachID, parentID, reqParentID uuid.UUID
		playerID                       uuid.UUID
		kind, status                   string
	)
	err := scan(&id, &kind, &requester, &target, &coachID, &parentID, &reqParentID,
		&playerID, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	req.ID = domain.ContactRequestID(id)
	req.Kind = Kind(kind)
	req.RequesterAccountID = domain.AccountID(requester)
	req.TargetAccountID = domain.AccountID(target)
	req.CoachID = domain.CoachID(coachID)
	req.ParentID = domain.ParentID(parentID)
	req.RequesterParentID = domain.ParentID(reqParentID)
	req.PlayerID = domain.PlayerID(playerID)
	req.Status = Status(status)
	return &req, nil
}
