package memory

import (
	"context"
	"sort"
	"sync"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// CampaignStore is an in-memory implementation of storage.CampaignStore.
type CampaignStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Campaign
}

// NewCampaignStore creates a new in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{data: make(map[string]*domain.Campaign)}
}

// Compile-time interface check.
var _ storage.CampaignStore = (*CampaignStore)(nil)

// Insert adds a campaign. Returns ErrDuplicateKey if campaign_id exists.
func (s *CampaignStore) Insert(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" || c.ChannelID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.CampaignID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *c
	s.data[c.CampaignID] = &cp
	return nil
}

// GetByID retrieves a campaign. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(_ context.Context, campaignID string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[campaignID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// GetByChannel retrieves all campaigns for a channel, ordered by campaign_id ASC.
func (s *CampaignStore) GetByChannel(_ context.Context, channelID string) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Campaign
	for _, c := range s.data {
		if c.ChannelID == channelID {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CampaignID < result[j].CampaignID })
	return result, nil
}
