// Package attribution computes spend/revenue truth per channel for one
// reporting window: blended ROAS, cohort LTV adjustment, and relative
// winner/loser/neutral classification.
package attribution

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"adbrain/internal/domain"
)

// ErrInsufficientData is returned when the window contains no metric rows.
// This is the only fatal condition; everything else degrades per-entity.
var ErrInsufficientData = errors.New("insufficient data: no metric rows in window")

// Engine computes AttributionSnapshots. Pure: every call derives its output
// from the inputs alone.
type Engine struct {
	cfg domain.Thresholds
	now func() time.Time
}

// New creates an attribution engine with the given thresholds.
func New(cfg domain.Thresholds) *Engine {
	return &Engine{cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock for deterministic output.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// channelSums accumulates spend/revenue per channel.
type channelSums struct {
	spend   float64
	revenue float64
}

// Compute aggregates the window's metric rows into an AttributionSnapshot.
// names maps channel_id to display name; unknown channels fall back to the id.
func (e *Engine) Compute(rows []*domain.DailyMetric, cohorts []*domain.Cohort, names map[string]string) (*domain.AttributionSnapshot, error) {
	if len(rows) == 0 {
		return nil, ErrInsufficientData
	}

	sums := make(map[string]*channelSums)
	var totalSpend, totalRevenue float64
	for _, m := range rows {
		cs, ok := sums[m.ChannelID]
		if !ok {
			cs = &channelSums{}
			sums[m.ChannelID] = cs
		}
		cs.spend += m.Spend
		cs.revenue += m.Revenue
		totalSpend += m.Spend
		totalRevenue += m.Revenue
	}

	var warnings []string

	ltvFactor, ltvWarnings := computeLTVFactor(cohorts)
	warnings = append(warnings, ltvWarnings...)

	blended := safeRatio(totalRevenue, totalSpend)
	if blended == nil {
		warnings = append(warnings, "total spend is zero; blended roas undefined, all channels neutral")
	}

	ltvAdjustedRevenue := totalRevenue * ltvFactor
	totals := domain.AttributionTotals{
		Spend:              totalSpend,
		Revenue:            totalRevenue,
		ROAS:               blended,
		LTVAdjustedRevenue: ltvAdjustedRevenue,
		LTVROAS:            safeRatio(ltvAdjustedRevenue, totalSpend),
	}

	channelIDs := make([]string, 0, len(sums))
	for id := range sums {
		channelIDs = append(channelIDs, id)
	}
	sort.Strings(channelIDs)

	channels := make([]domain.ChannelAttribution, 0, len(channelIDs))
	for _, id := range channelIDs {
		cs := sums[id]
		roas := safeRatio(cs.revenue, cs.spend)
		if roas == nil {
			warnings = append(warnings, fmt.Sprintf("channel %s has zero spend; roas undefined", id))
		}
		name := names[id]
		if name == "" {
			name = id
		}
		channels = append(channels, domain.ChannelAttribution{
			ChannelID: id,
			Name:      name,
			Spend:     cs.spend,
			Revenue:   cs.revenue,
			ROAS:      roas,
			LTVROAS:   safeRatio(cs.revenue*ltvFactor, cs.spend),
			Status:    classify(roas, blended, e.cfg),
		})
	}

	return &domain.AttributionSnapshot{
		Totals:    totals,
		Channels:  channels,
		LTVFactor: ltvFactor,
		Warnings:  warnings,
		Timestamp: e.now(),
	}, nil
}

// computeLTVFactor derives the cohort adjustment: most recent month's 90-day
// LTV over the oldest month's. Degrades to a neutral 1.0 with a warning when
// fewer than two cohort months exist or the baseline is zero.
func computeLTVFactor(cohorts []*domain.Cohort) (float64, []string) {
	if len(cohorts) == 0 {
		return 1.0, []string{"no cohort data; ltv factor degraded to neutral 1.0"}
	}
	if len(cohorts) == 1 {
		return 1.0, []string{"single cohort month; ltv factor degraded to neutral 1.0"}
	}

	sorted := make([]*domain.Cohort, len(cohorts))
	copy(sorted, cohorts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Month < sorted[j].Month })

	baseline := sorted[0].LTV90D
	recent := sorted[len(sorted)-1].LTV90D
	if baseline == 0 {
		return 1.0, []string{"baseline cohort ltv_90d is zero; ltv factor degraded to neutral 1.0"}
	}
	return recent / baseline, nil
}

// classify labels a channel relative to blended ROAS. Channels without a
// defined ROAS, or runs without a defined blended ROAS, stay neutral.
func classify(roas, blended *float64, cfg domain.Thresholds) domain.ChannelStatus {
	if roas == nil || blended == nil {
		return domain.ChannelNeutral
	}
	switch {
	case *roas > *blended*cfg.WinnerMultiplier:
		return domain.ChannelWinner
	case *roas < *blended*cfg.LoserMultiplier:
		return domain.ChannelLoser
	default:
		return domain.ChannelNeutral
	}
}

// safeRatio returns a/b, or nil when b is zero.
func safeRatio(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	v := a / b
	return &v
}
