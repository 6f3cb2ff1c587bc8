package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/google/uuid"
)

// InMemoryRunStore keeps runs in process memory. The CLI uses it where no
// database is configured.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]domain.VerificationRun
	now  func() time.Time
}

func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{
		runs: make(map[uuid.UUID]domain.VerificationRun),
		now:  time.Now,
	}
}

func (s *InMemoryRunStore) Create(ctx context.Context, r *domain.VerificationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, exists := s.runs[r.ID]; exists {
		return ErrConflict
	}
	r.CreatedAt = s.now()
	s.runs[r.ID] = *r
	return nil
}

func (s *InMemoryRunStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *InMemoryRunStore) ListByContest(ctx context.Context, contestID string, limit int) ([]domain.VerificationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []domain.VerificationRun
	for _, r := range s.runs {
		if r.ContestID == contestID {
			runs = append(runs, r)
		}
	}
	slices.SortFunc(runs, func(a, b domain.VerificationRun) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *InMemoryRunStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, r := range s.runs {
		if r.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
			deleted++
		}
	}
	return deleted, nil
}
