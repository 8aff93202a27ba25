package coach

import (
	"context"
	"sync"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and dev mode. The
// head-coach check runs under the write lock so concurrent claims on the same
// slot cannot both succeed.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.CoachID]*Profile
	byAcct   map[domain.AccountID]domain.CoachID
	slots    map[string]domain.CoachID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[domain.CoachID]*Profile),
		byAcct:   make(map[domain.AccountID]domain.CoachID),
		slots:    make(map[string]domain.CoachID),
	}
}

func (s *MemoryStore) Create(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byAcct[profile.AccountID]; exists {
		return sentinel.ErrConflict
	}
	if profile.CoachRole == RoleHeadCoach {
		if _, taken := s.slots[profile.SlotKey()]; taken {
			return sentinel.ErrAlreadyUsed
		}
		s.slots[profile.SlotKey()] = profile.ID
	}
	cp := *profile
	s.profiles[profile.ID] = &cp
	s.byAcct[profile.AccountID] = profile.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.CoachID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *profile
	return &cp, nil
}

func (s *MemoryStore) CoachIDByAccount(_ context.Context, accountID domain.AccountID) (domain.CoachID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAcct[accountID]
	if !ok {
		return domain.CoachID{}, sentinel.ErrNotFound
	}
	return id, nil
}
