package subscription

import (
	"context"
	"sync"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and dev mode. The
// slot claim runs under the write lock so concurrent claims cannot exceed
// the limit.
type MemoryStore struct {
	mu       sync.RWMutex
	subs     map[domain.SubscriptionID]*Subscription
	byParent map[domain.ParentID]domain.SubscriptionID
	byProv   map[string]domain.SubscriptionID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs:     make(map[domain.SubscriptionID]*Subscription),
		byParent: make(map[domain.ParentID]domain.SubscriptionID),
		byProv:   make(map[string]domain.SubscriptionID),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.subs[sub.ID]; ok {
		delete(s.byProv, existing.ProviderSubID)
	}
	cp := cloneSub(sub)
	s.subs[sub.ID] = cp
	s.byParent[sub.ParentID] = sub.ID
	if sub.ProviderSubID != "" {
		s.byProv[sub.ProviderSubID] = sub.ID
	}
	return nil
}

func (s *MemoryStore) GetByParent(_ context.Context, parentID domain.ParentID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byParent[parentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSub(s.subs[id]), nil
}

func (s *MemoryStore) GetByProviderID(_ context.Context, providerSubID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byProv[providerSubID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSub(s.subs[id]), nil
}

func (s *MemoryStore) ClaimSlot(_ context.Context, subID domain.SubscriptionID, playerID domain.PlayerID, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if sub.Covers(playerID) {
		return sentinel.ErrConflict
	}
	if len(sub.CoveredPlayerIDs) >= limit {
		return sentinel.ErrConflict
	}
	sub.CoveredPlayerIDs = append(sub.CoveredPlayerIDs, playerID)
	return nil
}

func (s *MemoryStore) ReleaseSlot(_ context.Context, playerID domain.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		for i, covered := range sub.CoveredPlayerIDs {
			if covered == playerID {
				sub.CoveredPlayerIDs = append(sub.CoveredPlayerIDs[:i], sub.CoveredPlayerIDs[i+1:]...)
				return nil
			}
		}
	}
	return sentinel.ErrNotFound
}

func cloneSub(sub *Subscription) *Subscription {
	cp := *sub
	cp.CoveredPlayerIDs = append([]domain.PlayerID(nil), sub.CoveredPlayerIDs...)
	return &cp
}
