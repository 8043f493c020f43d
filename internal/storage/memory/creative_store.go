package memory

import (
	"context"
	"sort"
	"sync"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// CreativeStore is an in-memory implementation of storage.CreativeStore.
type CreativeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Creative
}

// NewCreativeStore creates a new in-memory creative store.
func NewCreativeStore() *CreativeStore {
	return &CreativeStore{data: make(map[string]*domain.Creative)}
}

// Compile-time interface check.
var _ storage.CreativeStore = (*CreativeStore)(nil)

// Upsert inserts or replaces a creative by creative_id.
func (s *CreativeStore) Upsert(_ context.Context, c *domain.Creative) error {
	if c == nil || c.CreativeID == "" || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.data[c.CreativeID] = &cp
	return nil
}

// GetByID retrieves a creative. Returns ErrNotFound if not exists.
func (s *CreativeStore) GetByID(_ context.Context, creativeID string) (*domain.Creative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[creativeID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// GetByCampaign retrieves all creatives for a campaign, ordered by creative_id ASC.
func (s *CreativeStore) GetByCampaign(_ context.Context, campaignID string) ([]*domain.Creative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Creative
	for _, c := range s.data {
		if c.CampaignID == campaignID {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreativeID < result[j].CreativeID })
	return result, nil
}
