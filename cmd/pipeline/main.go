// Package main runs one pipeline pass for a single organization and
// window: attribution → risk → recommendation, with the result cached
// and printed as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"adbrain/internal/domain"
	"adbrain/internal/pipeline"
	"adbrain/internal/reporting"
	"adbrain/internal/storage"
	chstore "adbrain/internal/storage/clickhouse"
	"adbrain/internal/storage/memory"
	"adbrain/internal/storage/migrations"
	pgstore "adbrain/internal/storage/postgres"
)

func main() {
	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage with a synthetic dataset")
	org := flag.String("org", pipeline.FixtureOrgID, "Organization ID")
	start := flag.String("start", "", "Window start (YYYY-MM-DD)")
	end := flag.String("end", "", "Window end (YYYY-MM-DD)")
	outputDir := flag.String("output-dir", "", "Write report.md and actions.csv here (optional)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling run...\n", sig)
		cancel()
	}()

	window, err := resolveWindow(*start, *end, *useMemory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating stores: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if *useMemory {
		if err := pipeline.LoadFixtures(ctx,
			stores.metricStore, stores.cohortStore,
			stores.channelStore, stores.campaignStore, stores.creativeStore); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
			os.Exit(1)
		}
	}

	runner := pipeline.New(pipeline.Options{
		MetricStore:  stores.metricStore,
		CohortStore:  stores.cohortStore,
		ChannelStore: stores.channelStore,
		StateStore:   stores.stateStore,
		Thresholds:   domain.DefaultThresholds(),
		Verbose:      *verbose,
	})

	state, err := runner.Run(ctx, *org, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding state: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if *outputDir != "" {
		if err := writeReports(*outputDir, state); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing reports: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Reports written:\n  - %s/report.md\n  - %s/actions.csv\n", *outputDir, *outputDir)
	}
}

// resolveWindow parses the window flags. Memory mode defaults to the
// synthetic dataset's window; database mode requires both flags.
func resolveWindow(start, end string, useMemory bool) (domain.Window, error) {
	if start == "" && end == "" {
		if useMemory {
			return pipeline.FixtureWindow(), nil
		}
		return domain.Window{}, fmt.Errorf("--start and --end are required (YYYY-MM-DD)")
	}

	startT, err := time.Parse("2006-01-02", start)
	if err != nil {
		return domain.Window{}, fmt.Errorf("parse --start: %w", err)
	}
	endT, err := time.Parse("2006-01-02", end)
	if err != nil {
		return domain.Window{}, fmt.Errorf("parse --end: %w", err)
	}
	if endT.Before(startT) {
		return domain.Window{}, fmt.Errorf("--end before --start")
	}
	return domain.Window{Start: startT, End: endT}, nil
}

// allStores holds the storage implementations the pipeline reads.
type allStores struct {
	metricStore   storage.DailyMetricStore
	cohortStore   storage.CohortStore
	channelStore  storage.ChannelStore
	campaignStore storage.CampaignStore
	creativeStore storage.CreativeStore
	stateStore    storage.BrainStateStore
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

	if postgresDSN == "" || clickhouseDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

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

// writeReports renders the run as markdown and CSV files.
func writeReports(dir string, state *domain.BrainState) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	report := reporting.FromState(state)
	if err := os.WriteFile(filepath.Join(dir, "report.md"),
		[]byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "actions.csv"),
		[]byte(reporting.RenderActionsCSV(report.Actions)), 0644)
}
