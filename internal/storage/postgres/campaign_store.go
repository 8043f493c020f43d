package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// CampaignStore implements storage.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *Pool
}

// NewCampaignStore creates a new CampaignStore.
func NewCampaignStore(pool *Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CampaignStore = (*CampaignStore)(nil)

// Insert adds a campaign. Returns ErrDuplicateKey if campaign_id exists.
func (s *CampaignStore) Insert(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (campaign_id, name, channel_id, type)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, c.CampaignID, c.Name, c.ChannelID, c.Type)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	query := `
		SELECT campaign_id, name, channel_id, type
		FROM campaigns
		WHERE campaign_id = $1
	`

	var c domain.Campaign
	err := s.pool.QueryRow(ctx, query, campaignID).Scan(&c.CampaignID, &c.Name, &c.ChannelID, &c.Type)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return &c, nil
}

// GetByChannel retrieves all campaigns for a channel, ordered by campaign_id ASC.
func (s *CampaignStore) GetByChannel(ctx context.Context, channelID string) ([]*domain.Campaign, error) {
	query := `
		SELECT campaign_id, name, channel_id, type
		FROM campaigns
		WHERE channel_id = $1
		ORDER BY campaign_id ASC
	`

	rows, err := s.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("get campaigns by channel: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

func scanCampaigns(rows pgx.Rows) ([]*domain.Campaign, error) {
	var campaigns []*domain.Campaign

	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.CampaignID, &c.Name, &c.ChannelID, &c.Type); err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}
	return campaigns, nil
}
