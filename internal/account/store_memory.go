package account

import (
	"context"
	"strings"
	"sync"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and dev mode.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*Account
	byEmail  map[string]domain.AccountID
	parents  map[domain.ParentID]*ParentProfile
	byAcct   map[domain.AccountID]domain.ParentID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[domain.AccountID]*Account),
		byEmail:  make(map[string]domain.AccountID),
		parents:  make(map[domain.ParentID]*ParentProfile),
		byAcct:   make(map[domain.AccountID]domain.ParentID),
	}
}

func (s *MemoryStore) CreateAccount(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(acct.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *acct
	s.accounts[acct.ID] = &cp
	s.byEmail[key] = acct.ID
	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id domain.AccountID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *MemoryStore) GetAccountByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *MemoryStore) CreateParentProfile(_ context.Context, profile *ParentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byAcct[profile.AccountID]; exists {
		return sentinel.ErrConflict
	}
	cp := *profile
	s.parents[profile.ID] = &cp
	s.byAcct[profile.AccountID] = profile.ID
	return nil
}

func (s *MemoryStore) GetParentProfile(_ context.Context, id domain.ParentID) (*ParentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.parents[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *profile
	return &cp, nil
}

func (s *MemoryStore) GetParentProfileByAccount(_ context.Context, accountID domain.AccountID) (*ParentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAcct[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.parents[id]
	return &cp, nil
}
