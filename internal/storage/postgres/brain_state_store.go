package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// BrainStateStore implements storage.BrainStateStore using PostgreSQL.
// The full state is stored as one JSONB document per (org, window) key;
// reruns replace the document in place.
type BrainStateStore struct {
	pool *Pool
}

// NewBrainStateStore creates a new BrainStateStore.
func NewBrainStateStore(pool *Pool) *BrainStateStore {
	return &BrainStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BrainStateStore = (*BrainStateStore)(nil)

// Put stores or replaces the brain state for its (org, window) key.
func (s *BrainStateStore) Put(ctx context.Context, state *domain.BrainState) error {
	if state == nil || state.OrgID == "" {
		return storage.ErrInvalidInput
	}

	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal brain state: %w", err)
	}

	query := `
		INSERT INTO brain_states (org_id, window_start, window_end, run_id, state, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (org_id, window_start, window_end) DO UPDATE SET
			run_id       = EXCLUDED.run_id,
			state        = EXCLUDED.state,
			generated_at = EXCLUDED.generated_at
	`

	_, err = s.pool.Exec(ctx, query,
		state.OrgID,
		domain.Day(state.Window.Start),
		domain.Day(state.Window.End),
		state.RunID,
		doc,
		state.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("put brain state: %w", err)
	}
	return nil
}

// Get retrieves the cached state for an exact (org, window) key.
func (s *BrainStateStore) Get(ctx context.Context, orgID string, window domain.Window) (*domain.BrainState, error) {
	query := `
		SELECT state
		FROM brain_states
		WHERE org_id = $1 AND window_start = $2 AND window_end = $3
	`

	var doc []byte
	err := s.pool.QueryRow(ctx, query, orgID, domain.Day(window.Start), domain.Day(window.End)).Scan(&doc)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get brain state: %w", err)
	}
	return unmarshalState(doc)
}

// Latest retrieves the most recently generated state for an org.
func (s *BrainStateStore) Latest(ctx context.Context, orgID string) (*domain.BrainState, error) {
	query := `
		SELECT state
		FROM brain_states
		WHERE org_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var doc []byte
	err := s.pool.QueryRow(ctx, query, orgID).Scan(&doc)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest brain state: %w", err)
	}
	return unmarshalState(doc)
}

func unmarshalState(doc []byte) (*domain.BrainState, error) {
	var state domain.BrainState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("unmarshal brain state: %w", err)
	}
	// JSONB round-trips timestamps through RFC3339; normalize to UTC.
	state.GeneratedAt = state.GeneratedAt.In(time.UTC)
	return &state, nil
}
