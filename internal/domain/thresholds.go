package domain

// Thresholds collects every tunable constant of the pipeline. The numeric
// bands are deliberately configuration, not hard-coded values inside the
// engines.
type Thresholds struct {
	// Attribution: channel classification relative to blended ROAS.
	WinnerMultiplier float64 // winner when channel ROAS > blended * WinnerMultiplier
	LoserMultiplier  float64 // loser when channel ROAS < blended * LoserMultiplier

	// Detector windows (days). Baseline is the window of the same length as
	// RecentDays ending BaselineOffsetDays before the window end.
	MinHistoryDays     int
	RecentDays         int
	BaselineOffsetDays int

	// Creative fatigue triggers.
	CVRDropThreshold   float64 // relative cvr drop vs baseline
	CPARiseThreshold   float64 // relative cpa rise vs baseline
	FrequencyThreshold float64 // average recent frequency cap

	// ROI decay trigger.
	ROASDropThreshold float64 // relative recent-vs-baseline ROAS drop

	// LTV drift trigger and cohort windows.
	DriftThreshold      float64
	DriftRecentMonths   int
	DriftBaselineMonths int

	// Shared severity bands, applied to the relevant drop/drift magnitude.
	SeverityHighBand   float64 // high when magnitude > band
	SeverityMediumBand float64 // medium when magnitude >= band

	// Aggregation.
	RedHighFindings int // RED when high-severity findings >= this count

	// Recommendation generators.
	ShiftPercent       float64 // share of source spend moved by shift_budget
	PauseProbThreshold float64 // pause_creative when 7d fatigue probability exceeds this
	PauseUrgentProb    float64 // urgency high above this probability
	IncreaseMultiplier float64 // increase_budget when ROAS > blended * multiplier
	IncreasePercent    float64 // share of current spend added, within [0.05, 0.10]
	ChannelCapacityUSD float64 // winners at or above this window spend take no more budget

	// Scoring.
	ImpactWeight     float64
	SeverityWeight   float64
	ConfidenceWeight float64
	UrgencyWeight    float64
	MaxActions       int
	MaxIncreaseCount int // diversity cap on increase_budget in the final set
}

// DefaultThresholds returns the documented default configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WinnerMultiplier: 1.15,
		LoserMultiplier:  0.85,

		MinHistoryDays:     21,
		RecentDays:         7,
		BaselineOffsetDays: 14,

		CVRDropThreshold:   0.20,
		CPARiseThreshold:   0.25,
		FrequencyThreshold: 3.5,

		ROASDropThreshold: 0.15,

		DriftThreshold:      0.10,
		DriftRecentMonths:   2,
		DriftBaselineMonths: 1,

		SeverityHighBand:   0.30,
		SeverityMediumBand: 0.15,

		RedHighFindings: 3,

		ShiftPercent:       0.10,
		PauseProbThreshold: 0.60,
		PauseUrgentProb:    0.80,
		IncreaseMultiplier: 1.20,
		IncreasePercent:    0.10,
		ChannelCapacityUSD: 1_000_000,

		ImpactWeight:     0.4,
		SeverityWeight:   0.3,
		ConfidenceWeight: 0.2,
		UrgencyWeight:    0.1,
		MaxActions:       3,
		MaxIncreaseCount: 1,
	}
}

// SeverityFor maps a drop/drift magnitude onto the shared severity bands.
func (t Thresholds) SeverityFor(magnitude float64) Severity {
	switch {
	case magnitude > t.SeverityHighBand:
		return SeverityHigh
	case magnitude >= t.SeverityMediumBand:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
