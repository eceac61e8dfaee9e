package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu      sync.RWMutex
	last    map[string]time.Time
	history []Run
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]time.Time)}
}

func (s *MemoryStore) LastRun(_ context.Context, task string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.last[task]
	return t, ok, nil
}

func (s *MemoryStore) RecordRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = int64(len(s.history) + 1)
	s.history = append(s.history, run)
	if run.Outcome == OutcomeSuccess {
		s.last[run.Task] = run.Started
	}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, tasks ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		delete(s.last, t)
	}
	return nil
}

func (s *MemoryStore) History(_ context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Run, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.history[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
