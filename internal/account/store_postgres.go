package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// PostgresStore persists accounts and parent profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed account store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateAccount(ctx context.Context, acct *Account) error {
	if acct == nil {
		return fmt.Errorf("account is required")
	}
	query := `
		INSERT INTO accounts (id, email, name, role, created_at)
		VALUES ($1, lower($2), $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(acct.ID), acct.Email, acct.Name, string(acct.Role), acct.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id domain.AccountID) (*Account, error) {
	query := `SELECT id, email, name, role, created_at FROM accounts WHERE id = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT id, email, name, role, created_at FROM accounts WHERE email = lower($1)`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) scanAccount(row *sql.Row) (*Account, error) {
	var (
		acct Account
		id   uuid.UUID
		role string
	)
	err := row.Scan(&id, &acct.Email, &acct.Name, &role, &acct.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	acct.ID = domain.AccountID(id)
	acct.Role = domain.Role(role)
	return &acct, nil
}

func (s *PostgresStore) CreateParentProfile(ctx context.Context, profile *ParentProfile) error {
	if profile == nil {
		return fmt.Errorf("parent profile is required")
	}
	query := `
		INSERT INTO parent_profiles (id, account_id, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID), uuid.UUID(profile.AccountID), profile.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create parent profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetParentProfile(ctx context.Context, id domain.ParentID) (*ParentProfile, error) {
	query := `SELECT id, account_id, created_at FROM parent_profiles WHERE id = $1`
	return s.scanParentProfile(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) GetParentProfileByAccount(ctx context.Context, accountID domain.AccountID) (*ParentProfile, error) {
	query := `SELECT id, account_id, created_at FROM parent_profiles WHERE account_id = $1`
	return s.scanParentProfile(s.db.QueryRowContext(ctx, query, uuid.UUID(accountID)))
}

func (s *PostgresStore) scanParentProfile(row *sql.Row) (*ParentProfile, error) {
	var (
		profile   ParentProfile
		id        uuid.UUID
		accountID uuid.UUID
	)
	err := row.Scan(&id, &accountID, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get parent profile: %w", err)
	}
	profile.ID = domain.ParentID(id)
	profile.AccountID = domain.AccountID(accountID)
	return &profile, nil
}

// isUniqueViolation reports a PostgreSQL unique constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
