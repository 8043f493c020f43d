package memory

import (
	"context"
	"sort"
	"sync"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// CohortStore is an in-memory implementation of storage.CohortStore.
type CohortStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Cohort // keyed by org|month
}

// NewCohortStore creates a new in-memory cohort store.
func NewCohortStore() *CohortStore {
	return &CohortStore{data: make(map[string]*domain.Cohort)}
}

// Compile-time interface check.
var _ storage.CohortStore = (*CohortStore)(nil)

func cohortKey(orgID, month string) string {
	return orgID + "|" + month
}

// Insert adds a cohort. Returns ErrDuplicateKey if (org, month) exists.
func (s *CohortStore) Insert(_ context.Context, c *domain.Cohort) error {
	if c == nil || c.OrgID == "" || c.Month == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cohortKey(c.OrgID, c.Month)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *c
	s.data[key] = &cp
	return nil
}

// GetByOrg retrieves all cohorts for an org, ordered by month ASC.
func (s *CohortStore) GetByOrg(_ context.Context, orgID string) ([]*domain.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Cohort
	for _, c := range s.data {
		if c.OrgID == orgID {
			cp := *c
			result = append(result, &cp)
		}
	}
	// "2006-01" month keys sort chronologically as strings.
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}
