package player

import (
	"context"
	"sync"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and dev mode.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[domain.PlayerID]*Player
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[domain.PlayerID]*Player)}
}

func (s *MemoryStore) Create(_ context.Context, p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.players[p.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := clone(p)
	s.players[p.ID] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.PlayerID) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) ListByParent(_ context.Context, parentID domain.ParentID) ([]*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Player
	for _, p := range s.players {
		if p.ParentID == parentID {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (s *MemoryStore) CountByParent(_ context.Context, parentID domain.ParentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.players {
		if p.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Delete(_ context.Context, id domain.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.players, id)
	return nil
}

func clone(p *Player) *Player {
	cp := *p
	cp.SocialLinks = append([]string(nil), p.SocialLinks...)
	return &cp
}
