package postgres

import (
	"context"
	"fmt"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// CohortStore implements storage.CohortStore using PostgreSQL.
type CohortStore struct {
	pool *Pool
}

// NewCohortStore creates a new CohortStore.
func NewCohortStore(pool *Pool) *CohortStore {
	return &CohortStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CohortStore = (*CohortStore)(nil)

// Insert adds a cohort. Returns ErrDuplicateKey if (org, month) exists.
func (s *CohortStore) Insert(ctx context.Context, c *domain.Cohort) error {
	query := `
		INSERT INTO cohorts (org_id, month, customer_count, ltv_30d, ltv_60d, ltv_90d)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query, c.OrgID, c.Month, c.CustomerCount, c.LTV30D, c.LTV60D, c.LTV90D)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert cohort: %w", err)
	}
	return nil
}

// GetByOrg retrieves all cohorts for an org, ordered by month ASC.
func (s *CohortStore) GetByOrg(ctx context.Context, orgID string) ([]*domain.Cohort, error) {
	query := `
		SELECT org_id, month, customer_count, ltv_30d, ltv_60d, ltv_90d
		FROM cohorts
		WHERE org_id = $1
		ORDER BY month ASC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("get cohorts by org: %w", err)
	}
	defer rows.Close()

	var cohorts []*domain.Cohort
	for rows.Next() {
		var c domain.Cohort
		if err := rows.Scan(&c.OrgID, &c.Month, &c.CustomerCount, &c.LTV30D, &c.LTV60D, &c.LTV90D); err != nil {
			return nil, fmt.Errorf("scan cohort row: %w", err)
		}
		cohorts = append(cohorts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cohort rows: %w", err)
	}
	return cohorts, nil
}
