package memory

import (
	"context"
	"sync"
	"time"
)

// RetentionStore keeps the sweep marker in memory. A restart loses it, which
// makes the scheduler re-arm the window from the restart time.
type RetentionStore struct {
	mu          sync.Mutex
	lastResetAt time.Time
	set         bool
}

func NewRetentionStore() *RetentionStore {
	return &RetentionStore{}
}

func (s *RetentionStore) LastResetAt(_ context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResetAt, s.set, nil
}

func (s *RetentionStore) SetLastResetAt(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResetAt = at
	s.set = true
	return nil
}
