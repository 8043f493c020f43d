// Package pipeline orchestrates one marketing-intelligence run:
// attribution → risk → recommendation, with the combined result cached as
// an immutable BrainState per (organization, window).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"adbrain/internal/attribution"
	"adbrain/internal/domain"
	"adbrain/internal/idhash"
	"adbrain/internal/observability"
	"adbrain/internal/recommend"
	"adbrain/internal/risk"
	"adbrain/internal/storage"
)

// Runner coordinates the three engines over one organization and window.
// Every stage is a pure function over immutable inputs; an abandoned run
// leaves no partial state behind.
type Runner struct {
	metricStore  storage.DailyMetricStore
	cohortStore  storage.CohortStore
	channelStore storage.ChannelStore
	stateStore   storage.BrainStateStore

	attribution *attribution.Engine
	risk        *risk.Engine
	recommend   *recommend.Engine

	clock   func() time.Time
	verbose bool
}

// Options for creating a Runner.
type Options struct {
	MetricStore  storage.DailyMetricStore
	CohortStore  storage.CohortStore
	ChannelStore storage.ChannelStore
	StateStore   storage.BrainStateStore

	Thresholds domain.Thresholds
	Verbose    bool
}

// New creates a pipeline Runner.
func New(opts Options) *Runner {
	clock := func() time.Time { return time.Now().UTC() }
	r := &Runner{
		metricStore:  opts.MetricStore,
		cohortStore:  opts.CohortStore,
		channelStore: opts.ChannelStore,
		stateStore:   opts.StateStore,
		attribution:  attribution.New(opts.Thresholds),
		risk:         risk.New(opts.Thresholds),
		recommend:    recommend.New(opts.Thresholds),
		clock:        clock,
		verbose:      opts.Verbose,
	}
	return r
}

// WithClock sets a custom clock for deterministic output. The same clock is
// injected into all three engines.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	r.attribution.WithClock(clock)
	r.risk.WithClock(clock)
	r.recommend.WithClock(clock)
	return r
}

// Run executes the full pipeline for one (organization, window) and caches
// the combined BrainState. Only a window without a single valid metric row
// is fatal; invalid rows are dropped and logged, all other data gaps
// degrade inside their stage.
func (r *Runner) Run(ctx context.Context, orgID string, window domain.Window) (*domain.BrainState, error) {
	started := time.Now()

	r.log("Phase 1: Loading metrics for org %s (%s..%s)...",
		orgID, domain.Day(window.Start).Format("2006-01-02"), domain.Day(window.End).Format("2006-01-02"))
	rows, dropped, err := r.loadMetrics(ctx, orgID, window)
	if err != nil {
		observability.RecordPipelineRun("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("phase 1 (load metrics) failed: %w", err)
	}
	r.log("  Loaded %d rows (%d invalid rows dropped)", len(rows), dropped)

	cohorts, err := r.loadCohorts(ctx, orgID)
	if err != nil {
		observability.RecordPipelineRun("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("phase 1 (load cohorts) failed: %w", err)
	}
	names, err := r.channelNames(ctx)
	if err != nil {
		observability.RecordPipelineRun("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("phase 1 (load channels) failed: %w", err)
	}

	r.log("Phase 2: Computing attribution...")
	snapshot, err := r.attribution.Compute(rows, cohorts, names)
	if err != nil {
		observability.RecordPipelineRun("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("phase 2 (attribution) failed: %w", err)
	}
	r.log("  %d channels, blended over $%.2f spend", len(snapshot.Channels), snapshot.Totals.Spend)

	r.log("Phase 3: Assessing risk...")
	assessment := r.risk.Assess(rows, cohorts, snapshot, window)
	r.log("  %d fatigued creatives, %d decaying channels, risk %s",
		len(assessment.CreativeFatigue), len(assessment.ROIDecayChannels), assessment.RiskLevel)

	r.log("Phase 4: Generating recommendations...")
	recs := r.recommend.Generate(snapshot, assessment)
	r.log("  %d actions, $%.2f potential uplift", len(recs.Actions), recs.TotalPotentialUplift)

	// An abandoned run is discarded without side effects; nothing has been
	// written yet.
	if ctx.Err() != nil {
		observability.RecordPipelineRun("cancelled", time.Since(started).Seconds())
		return nil, ctx.Err()
	}

	state := &domain.BrainState{
		OrgID:       orgID,
		Window:      window,
		RunID:       idhash.ComputeRunID(orgID, window),
		Memory:      snapshot,
		Oracle:      assessment,
		Curiosity:   recs,
		GeneratedAt: r.clock(),
	}
	if err := r.stateStore.Put(ctx, state); err != nil {
		observability.RecordPipelineRun("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("phase 5 (cache brain state) failed: %w", err)
	}

	observability.RecordPipelineRun("ok", time.Since(started).Seconds())
	observability.RecordRiskLevel(string(assessment.RiskLevel))
	for _, a := range recs.Actions {
		observability.RecordAction(string(a.ActionType))
	}
	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(time.Now().Unix()))

	return state, nil
}

// loadMetrics reads the window's rows and drops invalid ones individually.
func (r *Runner) loadMetrics(ctx context.Context, orgID string, window domain.Window) ([]*domain.DailyMetric, int, error) {
	rows, err := r.metricStore.GetByRange(ctx, orgID, window.Start, window.End)
	if err != nil {
		return nil, 0, err
	}

	valid := make([]*domain.DailyMetric, 0, len(rows))
	dropped := 0
	for _, m := range rows {
		if verr := m.Validate(); verr != nil {
			dropped++
			observability.DefaultMetrics.RowsDropped.Inc()
			r.log("  dropping row %s/%s/%s on %s: %v",
				m.ChannelID, m.CampaignID, m.CreativeID, domain.Day(m.Date).Format("2006-01-02"), verr)
			continue
		}
		valid = append(valid, m)
	}
	observability.DefaultMetrics.RowsValidated.Add(float64(len(valid)))
	return valid, dropped, nil
}

// loadCohorts reads the org's cohorts and drops invalid ones individually.
func (r *Runner) loadCohorts(ctx context.Context, orgID string) ([]*domain.Cohort, error) {
	cohorts, err := r.cohortStore.GetByOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	valid := make([]*domain.Cohort, 0, len(cohorts))
	for _, c := range cohorts {
		if verr := c.Validate(); verr != nil {
			r.log("  dropping cohort %s: %v", c.Month, verr)
			continue
		}
		valid = append(valid, c)
	}
	return valid, nil
}

// channelNames builds the channel display name lookup.
func (r *Runner) channelNames(ctx context.Context) (map[string]string, error) {
	if r.channelStore == nil {
		return nil, nil
	}
	channels, err := r.channelStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(channels))
	for _, c := range channels {
		names[c.ChannelID] = c.Name
	}
	return names, nil
}

func (r *Runner) log(format string, args ...interface{}) {
	if r.verbose {
		log.Printf("[pipeline] "+format, args...)
	}
}
