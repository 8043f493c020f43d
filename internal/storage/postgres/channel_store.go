package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// ChannelStore implements storage.ChannelStore using PostgreSQL.
type ChannelStore struct {
	pool *Pool
}

// NewChannelStore creates a new ChannelStore.
func NewChannelStore(pool *Pool) *ChannelStore {
	return &ChannelStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ChannelStore = (*ChannelStore)(nil)

// Insert adds a channel. Returns ErrDuplicateKey if channel_id exists.
func (s *ChannelStore) Insert(ctx context.Context, c *domain.Channel) error {
	query := `
		INSERT INTO channels (channel_id, name, platform)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, c.ChannelID, c.Name, c.Platform)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

// GetByID retrieves a channel. Returns ErrNotFound if not exists.
func (s *ChannelStore) GetByID(ctx context.Context, channelID string) (*domain.Channel, error) {
	query := `
		SELECT channel_id, name, platform
		FROM channels
		WHERE channel_id = $1
	`

	var c domain.Channel
	err := s.pool.QueryRow(ctx, query, channelID).Scan(&c.ChannelID, &c.Name, &c.Platform)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get channel by id: %w", err)
	}
	return &c, nil
}

// GetAll retrieves all channels, ordered by channel_id ASC.
func (s *ChannelStore) GetAll(ctx context.Context) ([]*domain.Channel, error) {
	query := `
		SELECT channel_id, name, platform
		FROM channels
		ORDER BY channel_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all channels: %w", err)
	}
	defer rows.Close()

	return scanChannels(rows)
}

func scanChannels(rows pgx.Rows) ([]*domain.Channel, error) {
	var channels []*domain.Channel

	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ChannelID, &c.Name, &c.Platform); err != nil {
			return nil, fmt.Errorf("scan channel row: %w", err)
		}
		channels = append(channels, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel rows: %w", err)
	}
	return channels, nil
}
