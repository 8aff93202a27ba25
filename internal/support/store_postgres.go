package support

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// PostgresStore persists support tickets in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed support store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const ticketColumns = `id, account_id, subject, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, t *Ticket) error {
	if t == nil {
		return fmt.Errorf("ticket is required")
	}
	query := `
		INSERT INTO support_messages (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(t.ID), uuid.UUID(t.AccountID), t.Subject, string(t.Status),
		t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create support ticket: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.TicketID) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM support_messages WHERE id = $1`, uuid.UUID(id))
	t, err := scanTicket(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get support ticket: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id domain.TicketID, status TicketStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE support_messages SET status = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(id), string(status), at)
	if err != nil {
		return fmt.Errorf("update support ticket: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID domain.AccountID) ([]*Ticket, error) {
	return s.list(ctx, `
		SELECT `+ticketColumns+` FROM support_messages
		WHERE account_id = $1 ORDER BY created_at DESC`, uuid.UUID(accountID))
}

func (s *PostgresStore) List(ctx context.Context, status TicketStatus) ([]*Ticket, error) {
	return s.list(ctx, `
		SELECT `+ticketColumns+` FROM support_messages
		WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`, string(status))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Ticket, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list support tickets: %w", err)
	}
	defer rows.Close()

	var out []*Ticket
	for rows.Next() {
		t, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan support ticket: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate support tickets: %w", err)
	}
	return out, nil
}

func scanTicket(scan func(dest ...any) error) (*Ticket, error) {
	var (
		t           Ticket
		id, account uuid.UUID
		status      string
	)
	err := scan(&id, &account, &t.Subject, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.ID = domain.TicketID(id)
	t.AccountID = domain.AccountID(account)
	t.Status = TicketStatus(status)
	return &t, nil
}
