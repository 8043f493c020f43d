package risk

import (
	"sort"

	"adbrain/internal/domain"
)

// detectLTVDrift compares the average 90-day LTV of the most recent cohort
// months against the historical baseline. Missing cohort data degrades to an
// insufficient_data report, never an error.
func detectLTVDrift(cohorts []*domain.Cohort, cfg domain.Thresholds) domain.LTVDriftSignal {
	if len(cohorts) < 2 {
		return domain.LTVDriftSignal{InsufficientData: true}
	}

	sorted := make([]*domain.Cohort, len(cohorts))
	copy(sorted, cohorts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Month < sorted[j].Month })

	n := len(sorted)
	baselineMonths := cfg.DriftBaselineMonths
	if baselineMonths < 1 {
		baselineMonths = 1
	}
	recentMonths := cfg.DriftRecentMonths
	if recentMonths > n-baselineMonths {
		recentMonths = n - baselineMonths
	}
	if recentMonths < 1 {
		recentMonths = 1
	}

	baseline := meanLTV90(sorted[:baselineMonths])
	recent := meanLTV90(sorted[n-recentMonths:])
	if baseline == 0 {
		return domain.LTVDriftSignal{InsufficientData: true}
	}

	drift := (baseline - recent) / baseline
	sig := domain.LTVDriftSignal{
		BaselineLTV90D: baseline,
		RecentLTV90D:   recent,
		DriftPercent:   drift,
	}
	if drift <= cfg.DriftThreshold {
		return sig
	}

	sig.Detected = true
	sig.Severity = cfg.SeverityFor(drift)
	sig.Direction = driftDirection(sorted)
	return sig
}

// driftDirection compares the magnitudes of the two most recent
// cohort-to-cohort deltas: accelerating when the latest delta is larger.
// Defaults to stabilizing when fewer than three cohorts exist.
func driftDirection(sorted []*domain.Cohort) domain.DriftDirection {
	n := len(sorted)
	if n < 3 {
		return domain.DriftStabilizing
	}
	prev := sorted[n-2].LTV90D - sorted[n-3].LTV90D
	last := sorted[n-1].LTV90D - sorted[n-2].LTV90D
	if absf(last) > absf(prev) {
		return domain.DriftAccelerating
	}
	return domain.DriftStabilizing
}

func meanLTV90(cohorts []*domain.Cohort) float64 {
	if len(cohorts) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cohorts {
		sum += c.LTV90D
	}
	return sum / float64(len(cohorts))
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
