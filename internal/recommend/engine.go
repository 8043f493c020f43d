// Package recommend converts attribution and risk output into a small,
// ranked set of budget/creative actions with dollar-impact estimates.
package recommend

import (
	"time"

	"adbrain/internal/domain"
)

// Engine runs the four generators and the scorer/selector.
type Engine struct {
	cfg domain.Thresholds
	now func() time.Time
}

// New creates a recommendation engine with the given thresholds.
func New(cfg domain.Thresholds) *Engine {
	return &Engine{cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock for deterministic output.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Generate runs all generators over the engine outputs and returns the
// ranked, truncated action set. The generators are independent; each emits
// zero or more candidates.
func (e *Engine) Generate(snapshot *domain.AttributionSnapshot, assessment *domain.RiskAssessment) *domain.Recommendations {
	var candidates []domain.Action
	candidates = append(candidates, shiftBudget(snapshot, assessment, e.cfg)...)
	candidates = append(candidates, pauseCreative(assessment, e.cfg)...)
	candidates = append(candidates, increaseBudget(snapshot, assessment, e.cfg)...)
	candidates = append(candidates, focusRetention(snapshot, assessment, e.cfg)...)

	selected := rankAndSelect(candidates, e.cfg)

	total := 0.0
	for _, a := range selected {
		total += a.EstimatedImpactUSD
	}

	return &domain.Recommendations{
		Actions:              selected,
		TotalPotentialUplift: total,
		Timestamp:            e.now(),
	}
}
