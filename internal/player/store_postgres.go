package player

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

// PostgresStore persists players in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed player store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *Player) error {
	if p == nil {
		return fmt.Errorf("player is required")
	}
	query := `
		INSERT INTO players (id, parent_id, first_name, last_name, birth_year, position,
			level, city, region, social_links, games_played, goals, assists,
			plus_minus, points_per_game, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.ParentID), p.FirstName, p.LastName, p.BirthYear,
		p.Position, p.Level, p.City, p.Region, pq.Array(p.SocialLinks),
		p.Stats.GamesPlayed, p.Stats.Goals, p.Stats.Assists,
		p.Advanced.PlusMinus, p.Advanced.PointsPerGame, string(p.Status), p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

const playerColumns = `id, parent_id, first_name, last_name, birth_year, position,
	level, city, region, social_links, games_played, goals, assists,
	plus_minus, points_per_game, status, created_at`

func (s *PostgresStore) Get(ctx context.Context, id domain.PlayerID) (*Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, uuid.UUID(id))
	p, err := scanPlayer(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByParent(ctx context.Context, parentID domain.ParentID) ([]*Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE parent_id = $1 ORDER BY created_at`,
		uuid.UUID(parentID))
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []*Player
	for rows.Next() {
		p, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

func (s *PostgresStore) CountByParent(ctx context.Context, parentID domain.ParentID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM players WHERE parent_id = $1`, uuid.UUID(parentID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.PlayerID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanPlayer(scan func(dest ...any) error) (*Player, error) {
	var (
		p        Player
		id       uuid.UUID
		parentID uuid.UUID
		links    pq.StringArray
		status   string
	)
	err := scan(&id, &parentID, &p.FirstName, &p.LastName, &p.BirthYear, &p.Position,
		&p.Level, &p.City, &p.Region, &links, &p.Stats.GamesPlayed, &p.Stats.Goals,
		&p.Stats.Assists, &p.Advanced.PlusMinus, &p.Advanced.PointsPerGame,
		&status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = domain.PlayerID(id)
	p.ParentID = domain.ParentID(parentID)
	p.SocialLinks = []string(links)
	p.Status = Status(status)
	return &p, nil
}
