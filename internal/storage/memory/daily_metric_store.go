package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// DailyMetricStore is an in-memory implementation of storage.DailyMetricStore.
type DailyMetricStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyMetric // keyed by row composite key
}

// NewDailyMetricStore creates a new in-memory daily metric store.
func NewDailyMetricStore() *DailyMetricStore {
	return &DailyMetricStore{data: make(map[string]*domain.DailyMetric)}
}

// Compile-time interface check.
var _ storage.DailyMetricStore = (*DailyMetricStore)(nil)

// metricKey generates the unique row key.
func metricKey(m *domain.DailyMetric) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		m.OrgID, domain.Day(m.Date).Format("2006-01-02"), m.ChannelID, m.CampaignID, m.CreativeID)
}

// Insert adds a row. Returns ErrDuplicateKey if the row key exists.
func (s *DailyMetricStore) Insert(_ context.Context, m *domain.DailyMetric) error {
	if m == nil || m.OrgID == "" || m.ChannelID == "" || m.Date.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := metricKey(m)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *m
	s.data[key] = &cp
	return nil
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *DailyMetricStore) InsertBulk(_ context.Context, rows []*domain.DailyMetric) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates.
	batchKeys := make(map[string]struct{}, len(rows))
	for _, m := range rows {
		if m == nil || m.OrgID == "" || m.ChannelID == "" || m.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := metricKey(m)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, m := range rows {
		cp := *m
		s.data[metricKey(m)] = &cp
	}
	return nil
}

// GetByRange retrieves all rows for an org within [start, end] days inclusive,
// ordered by date ASC, then channel, campaign, creative.
func (s *DailyMetricStore) GetByRange(_ context.Context, orgID string, start, end time.Time) ([]*domain.DailyMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := domain.Day(start), domain.Day(end)

	var result []*domain.DailyMetric
	for _, m := range s.data {
		if m.OrgID != orgID {
			continue
		}
		d := domain.Day(m.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		cp := *m
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if result[i].ChannelID != result[j].ChannelID {
			return result[i].ChannelID < result[j].ChannelID
		}
		if result[i].CampaignID != result[j].CampaignID {
			return result[i].CampaignID < result[j].CampaignID
		}
		return result[i].CreativeID < result[j].CreativeID
	})
	return result, nil
}
