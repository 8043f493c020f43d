// Package main runs the long-lived service: the optional live metric
// feed, scheduled pipeline runs over a rolling window, and the HTTP API
// serving cached brain states.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"adbrain/internal/api"
	"adbrain/internal/domain"
	"adbrain/internal/feed"
	"adbrain/internal/pipeline"
	"adbrain/internal/storage"
	chstore "adbrain/internal/storage/clickhouse"
	"adbrain/internal/storage/memory"
	"adbrain/internal/storage/migrations"
	pgstore "adbrain/internal/storage/postgres"
)

// Server holds all components of the service.
type Server struct {
	// Configuration
	orgs            []string
	windowDays      int
	runInterval     time.Duration
	postgresDSN     string
	clickhouseDSN   string
	useMemory       bool

	// Components
	stores *allStores
	runner *pipeline.Runner
	logger *log.Logger

	// State
	mu          sync.Mutex
	started     time.Time
	lastRun     time.Time
	runs        int
	runErrors   int
	runInFlight bool
}

// allStores holds the storage implementations.
type allStores struct {
	metricStore   storage.DailyMetricStore
	cohortStore   storage.CohortStore
	channelStore  storage.ChannelStore
	campaignStore storage.CampaignStore
	creativeStore storage.CreativeStore
	stateStore    storage.BrainStateStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("FEED_WS_ENDPOINT"), "WebSocket endpoint pushing daily metric rows (optional)")
	orgs := flag.String("orgs", os.Getenv("ORGS"), "Comma-separated organization IDs to run the pipeline for")
	windowDays := flag.Int("window-days", 30, "Rolling window length in days")
	runInterval := flag.Duration("run-interval", 6*time.Hour, "Pipeline run interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage with a synthetic dataset")
	httpAddr := flag.String("http-addr", ":8080", "HTTP API listen address")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	orgList := splitOrgs(*orgs)
	if *useMemory && len(orgList) == 0 {
		orgList = []string{pipeline.FixtureOrgID}
	}
	if len(orgList) == 0 {
		logger.Fatal("--orgs is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *useMemory {
		if err := pipeline.LoadFixtures(ctx,
			stores.metricStore, stores.cohortStore,
			stores.channelStore, stores.campaignStore, stores.creativeStore); err != nil {
			logger.Fatalf("Failed to load fixtures: %v", err)
		}
		logger.Println("Loaded synthetic dataset into memory stores")
	}

	server := &Server{
		orgs:          orgList,
		windowDays:    *windowDays,
		runInterval:   *runInterval,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		useMemory:     *useMemory,
		stores:        stores,
		runner: pipeline.New(pipeline.Options{
			MetricStore:  stores.metricStore,
			CohortStore:  stores.cohortStore,
			ChannelStore: stores.channelStore,
			StateStore:   stores.stateStore,
			Thresholds:   domain.DefaultThresholds(),
			Verbose:      true,
		}),
		logger:  logger,
		started: time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Optional live feed
	if *feedEndpoint != "" {
		sub, err := feed.NewSubscriber(ctx, *feedEndpoint, stores.metricStore, nil)
		if err != nil {
			logger.Fatalf("Failed to start feed subscriber: %v", err)
		}
		defer sub.Close()
		logger.Printf("Feed subscriber connected to %s", *feedEndpoint)
	}

	// Start HTTP API
	go server.startHTTPServer(*httpAddr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// splitOrgs parses the comma-separated org list.
func splitOrgs(orgs string) []string {
	var list []string
	for _, o := range strings.Split(orgs, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			list = append(list, o)
		}
	}
	return list
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			metricStore:   memory.NewDailyMetricStore(),
			cohortStore:   memory.NewCohortStore(),
			channelStore:  memory.NewChannelStore(),
			campaignStore: memory.NewCampaignStore(),
			creativeStore: memory.NewCreativeStore(),
			stateStore:    memory.NewBrainStateStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL: reference data + cached brain states
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse: the daily metric time series
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		metricStore:   chstore.NewDailyMetricStore(chConn),
		cohortStore:   pgstore.NewCohortStore(pool),
		channelStore:  pgstore.NewChannelStore(pool),
		campaignStore: pgstore.NewCampaignStore(pool),
		creativeStore: pgstore.NewCreativeStore(pool),
		stateStore:    pgstore.NewBrainStateStore(pool),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// Run starts the pipeline scheduler and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Printf("Starting pipeline scheduler (orgs: %v, interval: %v)...", s.orgs, s.runInterval)

	// Run immediately on start
	s.runAll(ctx)

	ticker := time.NewTicker(s.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll executes one pipeline pass for every configured org.
func (s *Server) runAll(ctx context.Context) {
	s.mu.Lock()
	if s.runInFlight {
		s.mu.Unlock()
		s.logger.Println("Pipeline already running, skipping...")
		return
	}
	s.runInFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.runInFlight = false
		s.lastRun = time.Now()
		s.runs++
		s.mu.Unlock()
	}()

	window := s.rollingWindow()
	for _, org := range s.orgs {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		state, err := s.runner.Run(ctx, org, window)
		if err != nil {
			s.mu.Lock()
			s.runErrors++
			s.mu.Unlock()
			s.logger.Printf("Pipeline error for %s: %v", org, err)
			continue
		}
		s.logger.Printf("Pipeline completed for %s in %v: risk %s, %d actions",
			org, time.Since(start), state.Oracle.RiskLevel, len(state.Curiosity.Actions))
	}
}

// rollingWindow returns the last windowDays full UTC days ending yesterday.
// The synthetic dataset carries its own fixed window instead.
func (s *Server) rollingWindow() domain.Window {
	if s.useMemory {
		return pipeline.FixtureWindow()
	}
	end := domain.Day(time.Now().UTC().AddDate(0, 0, -1))
	start := end.AddDate(0, 0, -(s.windowDays - 1))
	return domain.Window{Start: start, End: end}
}

// startHTTPServer serves the read-only API, health, and metrics.
func (s *Server) startHTTPServer(addr string) {
	handler := api.NewRouter(api.Options{
		StateStore: s.stores.stateStore,
		Status:     s.status,
	})

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Orgs        []string  `json:"orgs"`
	LastRun     time.Time `json:"last_run,omitempty"`
	Runs        int       `json:"runs"`
	RunErrors   int       `json:"run_errors"`
	RunInFlight bool      `json:"run_in_flight"`
}

func (s *Server) status() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		Orgs:        s.orgs,
		LastRun:     s.lastRun,
		Runs:        s.runs,
		RunErrors:   s.runErrors,
		RunInFlight: s.runInFlight,
	}
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
