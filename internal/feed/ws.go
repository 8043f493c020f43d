// Package feed subscribes to a WebSocket stream of daily metric rows and
// writes them into the metric store. The pipeline never reads the feed
// directly; it only sees what the feed has persisted.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"adbrain/internal/domain"
	"adbrain/internal/observability"
	"adbrain/internal/storage"
)

// Config configures subscriber behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
}

// DefaultConfig returns default subscriber configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// metricMessage is the wire format of one pushed row.
type metricMessage struct {
	OrgID       string  `json:"org_id"`
	Date        string  `json:"date"` // "2006-01-02"
	ChannelID   string  `json:"channel_id"`
	CampaignID  string  `json:"campaign_id"`
	CreativeID  string  `json:"creative_id"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Frequency   float64 `json:"frequency"`
	CVR         float64 `json:"cvr"`
	CPA         float64 `json:"cpa"`
}

// Subscriber consumes metric rows from a WebSocket endpoint.
type Subscriber struct {
	endpoint string
	config   Config
	store    storage.DailyMetricStore

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// NewSubscriber creates a subscriber and connects to the endpoint.
func NewSubscriber(ctx context.Context, endpoint string, store storage.DailyMetricStore, config *Config) (*Subscriber, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	s := &Subscriber{
		endpoint: endpoint,
		config:   cfg,
		store:    store,
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// connect establishes the WebSocket connection.
func (s *Subscriber) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Close closes the connection and stops the loops.
func (s *Subscriber) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

// readLoop reads messages and persists valid rows.
func (s *Subscriber) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			// Exponential backoff, capped
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(message)
	}
}

// reconnect waits for the backoff delay and re-dials.
func (s *Subscriber) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	observability.RecordFeedReconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		log.Printf("[feed] reconnect failed: %v", err)
		return
	}
	log.Printf("[feed] reconnected to %s", s.endpoint)
}

// pingLoop sends ping frames to keep the connection alive.
func (s *Subscriber) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

// handleMessage decodes one pushed row and persists it. Bad rows are
// counted and skipped; a malformed message never stops the loop.
func (s *Subscriber) handleMessage(message []byte) {
	observability.RecordRowReceived()

	var msg metricMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		observability.RecordRowRejected("malformed")
		log.Printf("[feed] malformed message: %v", err)
		return
	}

	row, err := msg.toDomain()
	if err != nil {
		observability.RecordRowRejected("invalid")
		log.Printf("[feed] invalid row: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Insert(ctx, row); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			observability.RecordRowRejected("duplicate")
		default:
			observability.RecordRowRejected("store_error")
			log.Printf("[feed] insert failed for %s/%s/%s: %v",
				row.OrgID, row.ChannelID, msg.Date, err)
		}
	}
}

// toDomain converts the wire row and checks the metric invariants.
func (m *metricMessage) toDomain() (*domain.DailyMetric, error) {
	if m.OrgID == "" || m.ChannelID == "" {
		return nil, fmt.Errorf("missing org_id or channel_id")
	}

	date, err := time.Parse("2006-01-02", m.Date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", m.Date, err)
	}

	row := &domain.DailyMetric{
		OrgID:       m.OrgID,
		Date:        date,
		ChannelID:   m.ChannelID,
		CampaignID:  m.CampaignID,
		CreativeID:  m.CreativeID,
		Impressions: m.Impressions,
		Clicks:      m.Clicks,
		Spend:       m.Spend,
		Conversions: m.Conversions,
		Revenue:     m.Revenue,
		Frequency:   m.Frequency,
		CVR:         m.CVR,
		CPA:         m.CPA,
	}
	if err := row.Validate(); err != nil {
		return nil, err
	}
	return row, nil
}
