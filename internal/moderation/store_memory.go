package moderation

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
	reviews  map[domain.ReviewID]*Review
	disputes map[domain.DisputeID]*Dispute
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reviews:  make(map[domain.ReviewID]*Review),
		disputes: make(map[domain.DisputeID]*Dispute),
	}
}

func (s *MemoryStore) CreateReview(_ context.Context, r *Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reviews[r.ID] = &cp
	return nil
}

func (s *MemoryStore) GetReview(_ context.Context, id domain.ReviewID) (*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ListReviews(_ context.Context, kind ReviewKind, subjectID string, includeHidden bool) ([]*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Review
	for _, r := range s.reviews {
		if r.Kind != kind || r.SubjectID != subjectID {
			continue
		}
		if !includeHidden && r.Visibility == VisibilityHidden {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) VisibleSummary(_ context.Context, kind ReviewKind, subjectID string) (float64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum, count int
	for _, r := range s.reviews {
		if r.Kind != kind || r.SubjectID != subjectID || r.Visibility == VisibilityHidden {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (s *MemoryStore) SetReviewVisibility(_ context.Context, id domain.ReviewID, v Visibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.Visibility = v
	return nil
}

func (s *MemoryStore) OpenDispute(_ context.Context, d *Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[d.ReviewID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.disputes {
		if existing.ReviewID == d.ReviewID && existing.Status == DisputePending {
			return sentinel.ErrConflict
		}
	}
	r.Visibility = VisibilityHidden
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *MemoryStore) GetDispute(_ context.Context, id domain.DisputeID) (*Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disputes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) UpdateDisputeStatus(_ context.Context, id domain.DisputeID, from, to DisputeStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.Status != from {
		return sentinel.ErrInvalidState
	}
	d.Status = to
	d.UpdatedAt = at
	return nil
}

func (s *MemoryStore) ListDisputesByAccount(_ context.Context, accountID domain.AccountID) ([]*Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Dispute
	for _, d := range s.disputes {
		if d.DisputantID != accountID {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListDisputes(_ context.Context, kind ReviewKind, status DisputeStatus) ([]*Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Dispute
	for _, d := range s.disputes {
		if kind != "" && d.Kind != kind {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
