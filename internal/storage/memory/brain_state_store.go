package memory

import (
	"context"
	"sync"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// BrainStateStore is an in-memory implementation of storage.BrainStateStore.
// Put replaces the cached entry for its (org, window) key; reruns supersede.
type BrainStateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BrainState
}

// NewBrainStateStore creates a new in-memory brain state cache.
func NewBrainStateStore() *BrainStateStore {
	return &BrainStateStore{data: make(map[string]*domain.BrainState)}
}

// Compile-time interface check.
var _ storage.BrainStateStore = (*BrainStateStore)(nil)

func stateKey(orgID string, w domain.Window) string {
	return orgID + "|" + domain.Day(w.Start).Format("2006-01-02") + "|" + domain.Day(w.End).Format("2006-01-02")
}

// Put stores or replaces the brain state for its (org, window) key.
func (s *BrainStateStore) Put(_ context.Context, state *domain.BrainState) error {
	if state == nil || state.OrgID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *state
	s.data[stateKey(state.OrgID, state.Window)] = &cp
	return nil
}

// Get retrieves the cached state for an exact (org, window) key.
func (s *BrainStateStore) Get(_ context.Context, orgID string, window domain.Window) (*domain.BrainState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.data[stateKey(orgID, window)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *state
	return &cp, nil
}

// Latest retrieves the most recently generated state for an org.
func (s *BrainStateStore) Latest(_ context.Context, orgID string) (*domain.BrainState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.BrainState
	for _, state := range s.data {
		if state.OrgID != orgID {
			continue
		}
		if latest == nil || state.GeneratedAt.After(latest.GeneratedAt) {
			latest = state
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}
