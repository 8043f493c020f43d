package memory

import (
	"context"
	"sort"
	"sync"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// ChannelStore is an in-memory implementation of storage.ChannelStore.
type ChannelStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Channel
}

// NewChannelStore creates a new in-memory channel store.
func NewChannelStore() *ChannelStore {
	return &ChannelStore{data: make(map[string]*domain.Channel)}
}

// Compile-time interface check.
var _ storage.ChannelStore = (*ChannelStore)(nil)

// Insert adds a channel. Returns ErrDuplicateKey if channel_id exists.
func (s *ChannelStore) Insert(_ context.Context, c *domain.Channel) error {
	if c == nil || c.ChannelID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ChannelID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *c
	s.data[c.ChannelID] = &cp
	return nil
}

// GetByID retrieves a channel. Returns ErrNotFound if not exists.
func (s *ChannelStore) GetByID(_ context.Context, channelID string) (*domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[channelID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// GetAll retrieves all channels, ordered by channel_id ASC.
func (s *ChannelStore) GetAll(_ context.Context) ([]*domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Channel, 0, len(s.data))
	for _, c := range s.data {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ChannelID < result[j].ChannelID })
	return result, nil
}
