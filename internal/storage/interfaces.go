package storage

import (
	"context"
	"time"

	"adbrain/internal/domain"
)

// ChannelStore provides access to channel reference data.
type ChannelStore interface {
	// Insert adds a channel. Returns ErrDuplicateKey if channel_id exists.
	Insert(ctx context.Context, c *domain.Channel) error

	// GetByID retrieves a channel. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, channelID string) (*domain.Channel, error)

	// GetAll retrieves all channels, ordered by channel_id ASC.
	GetAll(ctx context.Context) ([]*domain.Channel, error)
}

// CampaignStore provides access to campaign reference data.
type CampaignStore interface {
	// Insert adds a campaign. Returns ErrDuplicateKey if campaign_id exists.
	Insert(ctx context.Context, c *domain.Campaign) error

	// GetByID retrieves a campaign. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// GetByChannel retrieves all campaigns for a channel, ordered by campaign_id ASC.
	GetByChannel(ctx context.Context, channelID string) ([]*domain.Campaign, error)
}

// CreativeStore provides access to creative reference data. Creatives are
// mutated by external ingestion (status, cumulative snapshot); the pipeline
// only reads them.
type CreativeStore interface {
	// Upsert inserts or replaces a creative by creative_id.
	Upsert(ctx context.Context, c *domain.Creative) error

	// GetByID retrieves a creative. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, creativeID string) (*domain.Creative, error)

	// GetByCampaign retrieves all creatives for a campaign, ordered by creative_id ASC.
	GetByCampaign(ctx context.Context, campaignID string) ([]*domain.Creative, error)
}

// DailyMetricStore provides access to the daily performance time series.
// Rows are append-only: one row per (org, date, channel, campaign, creative).
type DailyMetricStore interface {
	// Insert adds a row. Returns ErrDuplicateKey if the row key exists.
	Insert(ctx context.Context, m *domain.DailyMetric) error

	// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, rows []*domain.DailyMetric) error

	// GetByRange retrieves all rows for an org within [start, end] days
	// (inclusive), ordered by date ASC, then channel, campaign, creative.
	GetByRange(ctx context.Context, orgID string, start, end time.Time) ([]*domain.DailyMetric, error)
}

// CohortStore provides access to monthly acquisition cohorts.
type CohortStore interface {
	// Insert adds a cohort. Returns ErrDuplicateKey if (org, month) exists.
	Insert(ctx context.Context, c *domain.Cohort) error

	// GetByOrg retrieves all cohorts for an org, ordered by month ASC.
	GetByOrg(ctx context.Context, orgID string) ([]*domain.Cohort, error)
}

// BrainStateStore caches the combined pipeline output per (org, window).
// Unlike the append-only stores, Put has upsert semantics: a new run
// supersedes the previous cached entry.
type BrainStateStore interface {
	// Put stores or replaces the brain state for its (org, window) key.
	Put(ctx context.Context, s *domain.BrainState) error

	// Get retrieves the cached state for an exact (org, window) key.
	// Returns ErrNotFound if no run has completed for that key.
	Get(ctx context.Context, orgID string, window domain.Window) (*domain.BrainState, error)

	// Latest retrieves the most recently generated state for an org.
	// Returns ErrNotFound if the org has no cached state.
	Latest(ctx context.Context, orgID string) (*domain.BrainState, error)
}
