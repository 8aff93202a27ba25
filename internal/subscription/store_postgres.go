package subscription

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

// PostgresStore persists subscriptions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed subscription store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, sub *Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription is required")
	}
	query := `
		INSERT INTO subscriptions (id, parent_id, plan, status, billing_period, provider_sub_id, slots, period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (parent_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			billing_period = EXCLUDED.billing_period,
			provider_sub_id = EXCLUDED.provider_sub_id,
			slots = EXCLUDED.slots,
			period_end = EXCLUDED.period_end,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(sub.ID), uuid.UUID(sub.ParentID), string(sub.Plan), string(sub.Status),
		string(sub.BillingPeriod), sub.ProviderSubID, sub.Slots, sub.PeriodEnd, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByParent(ctx context.Context, parentID domain.ParentID) (*Subscription, error) {
	return s.get(ctx, `WHERE parent_id = $1`, uuid.UUID(parentID))
}

func (s *PostgresStore) GetByProviderID(ctx context.Context, providerSubID string) (*Subscription, error) {
	return s.get(ctx, `WHERE provider_sub_id = $1`, providerSubID)
}

func (s *PostgresStore) get(ctx context.Context, where string, arg any) (*Subscription, error) {
	query := `
		SELECT id, parent_id, plan, status, billing_period, provider_sub_id, slots, period_end, created_at, updated_at
		FROM subscriptions ` + where
	var (
		sub      Subscription
		id       uuid.UUID
		parentID uuid.UUID
		plan     string
		status   string
		period   string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&id, &parentID, &plan, &status, &period, &sub.ProviderSubID,
		&sub.Slots, &sub.PeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	sub.ID = domain.SubscriptionID(id)
	sub.ParentID = domain.ParentID(parentID)
	sub.Plan = domain.PlanID(plan)
	sub.Status = domain.SubscriptionStatus(status)
	sub.BillingPeriod = BillingPeriod(period)

	covered, err := s.coveredPlayers(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.CoveredPlayerIDs = covered
	return &sub, nil
}

func (s *PostgresStore) coveredPlayers(ctx context.Context, subID domain.SubscriptionID) ([]domain.PlayerID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id FROM subscription_players WHERE subscription_id = $1 ORDER BY claimed_at`,
		uuid.UUID(subID))
	if err != nil {
		return nil, fmt.Errorf("list covered players: %w", err)
	}
	defer rows.Close()

	var covered []domain.PlayerID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan covered player: %w", err)
		}
		covered = append(covered, domain.PlayerID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate covered players: %w", err)
	}
	return covered, nil
}

// ClaimSlot inserts the coverage row only while the subscription is under its
// limit. The subscription row is locked first so concurrent claims serialize
// on the count; the unique index on player_id rejects double-claims.
func (s *PostgresStore) ClaimSlot(ctx context.Context, subID domain.SubscriptionID, playerID domain.PlayerID, limit int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin claim coverage slot: %w", err)
	}
	defer tx.Rollback()

	var locked int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM subscriptions WHERE id = $1 FOR UPDATE`, uuid.UUID(subID)).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock subscription: %w", err)
	}

	query := `
		INSERT INTO subscription_players (subscription_id, player_id, claimed_at)
		SELECT $1, $2, now()
		WHERE (SELECT count(*) FROM subscription_players WHERE subscription_id = $1) < $3
	`
	res, err := tx.ExecContext(ctx, query, uuid.UUID(subID), uuid.UUID(playerID), limit)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("claim coverage slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim coverage slot: %w", err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit claim coverage slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReleaseSlot(ctx context.Context, playerID domain.PlayerID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscription_players WHERE player_id = $1`, uuid.UUID(playerID))
	if err != nil {
		return fmt.Errorf("release coverage slot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
