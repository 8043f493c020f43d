package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// CreativeStore implements storage.CreativeStore using PostgreSQL.
// Creatives are the one mutable reference table: ingestion pushes status
// changes and cumulative snapshots through Upsert.
type CreativeStore struct {
	pool *Pool
}

// NewCreativeStore creates a new CreativeStore.
func NewCreativeStore(pool *Pool) *CreativeStore {
	return &CreativeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CreativeStore = (*CreativeStore)(nil)

// Upsert inserts or replaces a creative by creative_id.
func (s *CreativeStore) Upsert(ctx context.Context, c *domain.Creative) error {
	query := `
		INSERT INTO creatives (creative_id, campaign_id, channel_id, status, spend, roas, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (creative_id) DO UPDATE SET
			campaign_id = EXCLUDED.campaign_id,
			channel_id  = EXCLUDED.channel_id,
			status      = EXCLUDED.status,
			spend       = EXCLUDED.spend,
			roas        = EXCLUDED.roas,
			updated_at  = now()
	`

	_, err := s.pool.Exec(ctx, query, c.CreativeID, c.CampaignID, c.ChannelID, c.Status, c.Spend, c.ROAS)
	if err != nil {
		return fmt.Errorf("upsert creative: %w", err)
	}
	return nil
}

// GetByID retrieves a creative. Returns ErrNotFound if not exists.
func (s *CreativeStore) GetByID(ctx context.Context, creativeID string) (*domain.Creative, error) {
	query := `
		SELECT creative_id, campaign_id, channel_id, status, spend, roas
		FROM creatives
		WHERE creative_id = $1
	`

	var c domain.Creative
	err := s.pool.QueryRow(ctx, query, creativeID).Scan(
		&c.CreativeID, &c.CampaignID, &c.ChannelID, &c.Status, &c.Spend, &c.ROAS)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get creative by id: %w", err)
	}
	return &c, nil
}

// GetByCampaign retrieves all creatives for a campaign, ordered by creative_id ASC.
func (s *CreativeStore) GetByCampaign(ctx context.Context, campaignID string) ([]*domain.Creative, error) {
	query := `
		SELECT creative_id, campaign_id, channel_id, status, spend, roas
		FROM creatives
		WHERE campaign_id = $1
		ORDER BY creative_id ASC
	`

	rows, err := s.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get creatives by campaign: %w", err)
	}
	defer rows.Close()

	return scanCreatives(rows)
}

func scanCreatives(rows pgx.Rows) ([]*domain.Creative, error) {
	var creatives []*domain.Creative

	for rows.Next() {
		var c domain.Creative
		if err := rows.Scan(&c.CreativeID, &c.CampaignID, &c.ChannelID, &c.Status, &c.Spend, &c.ROAS); err != nil {
			return nil, fmt.Errorf("scan creative row: %w", err)
		}
		creatives = append(creatives, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creative rows: %w", err)
	}
	return creatives, nil
}
