// Package risk detects forward-looking risk signals in creative
// performance, channel ROI and cohort LTV, and aggregates them into one
// ordinal risk level per run.
package risk

import (
	"sync"
	"time"

	"adbrain/internal/domain"
)

// Engine runs the three detectors and the counting aggregation.
type Engine struct {
	cfg domain.Thresholds
	now func() time.Time
}

// New creates a risk engine with the given thresholds.
func New(cfg domain.Thresholds) *Engine {
	return &Engine{cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock for deterministic output.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Assess runs creative-fatigue, ROI-decay and LTV-drift detection over the
// window's rows. The detectors are independent and evaluated concurrently;
// each reads only its inputs and returns a value. Entities lacking history
// are skipped silently inside their detector.
func (e *Engine) Assess(rows []*domain.DailyMetric, cohorts []*domain.Cohort, attribution *domain.AttributionSnapshot, window domain.Window) *domain.RiskAssessment {
	var (
		fatigue []domain.CreativeFatigueSignal
		decay   []domain.ROIDecaySignal
		drift   domain.LTVDriftSignal
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		fatigue = detectCreativeFatigue(rows, window.End, e.cfg)
	}()
	go func() {
		defer wg.Done()
		decay = detectROIDecay(rows, attribution, window.End, e.cfg)
	}()
	go func() {
		defer wg.Done()
		drift = detectLTVDrift(cohorts, e.cfg)
	}()
	wg.Wait()

	return &domain.RiskAssessment{
		CreativeFatigue:  fatigue,
		ROIDecayChannels: decay,
		LTVDrift:         drift,
		RiskLevel:        aggregate(fatigue, decay, drift, e.cfg),
		Timestamp:        e.now(),
	}
}

// aggregate applies the counting rule: RED when high-severity findings reach
// the configured count, YELLOW when any medium-or-higher finding exists,
// GREEN otherwise. A deliberate count, not a weighted score.
func aggregate(fatigue []domain.CreativeFatigueSignal, decay []domain.ROIDecaySignal, drift domain.LTVDriftSignal, cfg domain.Thresholds) domain.RiskLevel {
	high, moderate := 0, 0

	for _, f := range fatigue {
		if f.Severity == domain.SeverityHigh {
			high++
		}
		if f.Severity.AtLeast(domain.SeverityMedium) {
			moderate++
		}
	}
	for _, d := range decay {
		if d.Severity == domain.SeverityHigh {
			high++
		}
		if d.Severity.AtLeast(domain.SeverityMedium) {
			moderate++
		}
	}
	if drift.Detected {
		if drift.Severity == domain.SeverityHigh {
			high++
		}
		if drift.Severity.AtLeast(domain.SeverityMedium) {
			moderate++
		}
	}

	switch {
	case high >= cfg.RedHighFindings:
		return domain.RiskRed
	case moderate > 0:
		return domain.RiskYellow
	default:
		return domain.RiskGreen
	}
}
