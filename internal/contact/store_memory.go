package contact

import (
	"context"
	"sort"
	"sync"
	"time"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.ContactRequestID]*ContactRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[domain.ContactRequestID]*ContactRequest)}
}

func samePair(r *ContactRequest, kind Kind, a, b domain.AccountID, playerID domain.PlayerID) bool {
	if r.Kind != kind || r.PlayerID != playerID {
		return false
	}
	return (r.RequesterAccountID == a && r.TargetAccountID == b) ||
		(r.RequesterAccountID == b && r.TargetAccountID == a)
}

func (s *MemoryStore) Create(_ context.Context, req *ContactRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.Status != StatusRejected &&
			samePair(existing, req.Kind, req.RequesterAccountID, req.TargetAccountID, req.PlayerID) {
			return sentinel.ErrConflict
		}
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.ContactRequestID) (*ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) FindBetween(_ context.Context, kind Kind, a, b domain.AccountID, playerID domain.PlayerID) (*ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *ContactRequest
	for _, req := range s.requests {
		if !samePair(req, kind, a, b, playerID) {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id domain.ContactRequestID, from, to Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if req.Status != from {
		return sentinel.ErrInvalidState
	}
	req.Status = to
	req.UpdatedAt = at
	return nil
}

func (s *MemoryStore) ListForAccount(_ context.Context, accountID domain.AccountID, kind Kind) ([]*ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ContactRequest
	for _, req := range s.requests {
		if kind != "" && req.Kind != kind {
			continue
		}
		if !req.IsParty(accountID) {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) HasApprovedBetween(_ context.Context, a, b domain.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.Status != StatusApproved {
			continue
		}
		if (req.RequesterAccountID == a && req.TargetAccountID == b) ||
			(req.RequesterAccountID == b && req.TargetAccountID == a) {
			return true, nil
		}
	}
	return false, nil
}
