package clickhouse

import (
	"context"
	"fmt"
	"time"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// DailyMetricStore implements storage.DailyMetricStore using ClickHouse.
// MergeTree does not enforce uniqueness at insert time, so duplicate keys
// are checked explicitly before each write.
type DailyMetricStore struct {
	conn *Conn
}

// NewDailyMetricStore creates a new DailyMetricStore.
func NewDailyMetricStore(conn *Conn) *DailyMetricStore {
	return &DailyMetricStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DailyMetricStore = (*DailyMetricStore)(nil)

// metricKey identifies a row for duplicate detection.
type metricKey struct {
	orgID      string
	date       time.Time
	channelID  string
	campaignID string
	creativeID string
}

func keyOf(m *domain.DailyMetric) metricKey {
	return metricKey{
		orgID:      m.OrgID,
		date:       domain.Day(m.Date),
		channelID:  m.ChannelID,
		campaignID: m.CampaignID,
		creativeID: m.CreativeID,
	}
}

// Insert adds a row. Returns ErrDuplicateKey if the row key exists.
func (s *DailyMetricStore) Insert(ctx context.Context, m *domain.DailyMetric) error {
	return s.InsertBulk(ctx, []*domain.DailyMetric{m})
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any
// duplicate, intra-batch or against existing rows.
func (s *DailyMetricStore) InsertBulk(ctx context.Context, rows []*domain.DailyMetric) error {
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[metricKey]struct{}, len(rows))
	for _, m := range rows {
		if m == nil || m.OrgID == "" || m.ChannelID == "" || m.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := keyOf(m)
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, m := range rows {
		exists, err := s.exists(ctx, m)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_metrics (
			org_id, date, channel_id, campaign_id, creative_id,
			impressions, clicks, spend, conversions, revenue,
			frequency, cvr, cpa
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, m := range rows {
		err = batch.Append(
			m.OrgID, domain.Day(m.Date), m.ChannelID, m.CampaignID, m.CreativeID,
			uint64(m.Impressions), uint64(m.Clicks), m.Spend, uint64(m.Conversions), m.Revenue,
			m.Frequency, m.CVR, m.CPA,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRange retrieves all rows for an org within [start, end] days
// inclusive, ordered by date, then channel, campaign, creative.
func (s *DailyMetricStore) GetByRange(ctx context.Context, orgID string, start, end time.Time) ([]*domain.DailyMetric, error) {
	query := `
		SELECT org_id, date, channel_id, campaign_id, creative_id,
		       impressions, clicks, spend, conversions, revenue,
		       frequency, cvr, cpa
		FROM daily_metrics
		WHERE org_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, channel_id ASC, campaign_id ASC, creative_id ASC
	`

	rows, err := s.conn.Query(ctx, query, orgID, domain.Day(start), domain.Day(end))
	if err != nil {
		return nil, fmt.Errorf("query metrics by range: %w", err)
	}
	defer rows.Close()

	var result []*domain.DailyMetric
	for rows.Next() {
		var m domain.DailyMetric
		var impressions, clicks, conversions uint64

		err := rows.Scan(
			&m.OrgID, &m.Date, &m.ChannelID, &m.CampaignID, &m.CreativeID,
			&impressions, &clicks, &m.Spend, &conversions, &m.Revenue,
			&m.Frequency, &m.CVR, &m.CPA,
		)
		if err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}

		m.Date = domain.Day(m.Date)
		m.Impressions = int64(impressions)
		m.Clicks = int64(clicks)
		m.Conversions = int64(conversions)
		result = append(result, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric rows: %w", err)
	}
	return result, nil
}

// exists checks whether a row with the same composite key is stored.
func (s *DailyMetricStore) exists(ctx context.Context, m *domain.DailyMetric) (bool, error) {
	query := `
		SELECT count(*) FROM daily_metrics
		WHERE org_id = ? AND date = ? AND channel_id = ? AND campaign_id = ? AND creative_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query,
		m.OrgID, domain.Day(m.Date), m.ChannelID, m.CampaignID, m.CreativeID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
