package player

import (
	"context"

	"rinknet/pkg/domain"
)

// Store persists players. Implementations return sentinel.ErrNotFound for
// unknown ids.
type Store interface {
	Create(ctx context.Context, p *Player) error
	Get(ctx context.Context, id domain.PlayerID) (*Player, error)
	ListByParent(ctx context.Context, parentID domain.ParentID) ([]*Player, error)
	CountByParent(ctx context.Context, parentID domain.ParentID) (int, error)
	Delete(ctx context.Context, id domain.PlayerID) error
}
