package coach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// headCoachSlotIndex is the partial unique index enforcing one head coach per
// roster slot. Its name tells slot collisions apart from other violations.
const headCoachSlotIndex = "coach_profiles_head_coach_slot"

// PostgresStore persists coach profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed coach store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("coach profile is required")
	}
	query := `
		INSERT INTO coach_profiles (id, account_id, name, league, team, level, birth_year, coach_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID), uuid.UUID(profile.AccountID), profile.Name,
		profile.League, profile.Team, profile.Level, profile.BirthYear,
		string(profile.CoachRole), profile.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == headCoachSlotIndex {
				return sentinel.ErrAlreadyUsed
			}
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create coach profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.CoachID) (*Profile, error) {
	query := `
		SELECT id, account_id, name, league, team, level, birth_year, coach_role, created_at
		FROM coach_profiles WHERE id = $1
	`
	var (
		profile   Profile
		pid       uuid.UUID
		accountID uuid.UUID
		role      string
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&pid, &accountID, &profile.Name, &profile.League, &profile.Team,
		&profile.Level, &profile.BirthYear, &role, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get coach profile: %w", err)
	}
	profile.ID = domain.CoachID(pid)
	profile.AccountID = domain.AccountID(accountID)
	profile.CoachRole = CoachRole(role)
	return &profile, nil
}

func (s *PostgresStore) CoachIDByAccount(ctx context.Context, accountID domain.AccountID) (domain.CoachID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM coach_profiles WHERE account_id = $1`, uuid.UUID(accountID)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CoachID{}, sentinel.ErrNotFound
		}
		return domain.CoachID{}, fmt.Errorf("get coach id by account: %w", err)
	}
	return domain.CoachID(id), nil
}
