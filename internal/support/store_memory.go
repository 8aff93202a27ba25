package support

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
	mu      sync.RWMutex
	tickets map[domain.TicketID]*Ticket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[domain.TicketID]*Ticket)}
}

func (s *MemoryStore) Create(_ context.Context, t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.TicketID) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id domain.TicketID, status TicketStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = at
	return nil
}

func (s *MemoryStore) ListByAccount(_ context.Context, accountID domain.AccountID) ([]*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Ticket
	for _, t := range s.tickets {
		if t.AccountID != accountID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, status TicketStatus) ([]*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Ticket
	for _, t := range s.tickets {
		if status != "" && t.Status != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
