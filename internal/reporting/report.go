package reporting

import "time"

// Report is the human-readable rendering of one cached pipeline run.
type Report struct {
	// Metadata
	OrgID       string
	RunID       string
	WindowStart time.Time
	WindowEnd   time.Time
	GeneratedAt time.Time

	// Attribution
	Totals      TotalsRow
	Channels    []ChannelRow
	LTVFactor   float64
	Warnings    []string

	// Risk
	RiskLevel       string
	CreativeFatigue []FatigueRow
	ROIDecay        []DecayRow
	LTVDrift        DriftRow

	// Recommendations
	Actions              []ActionRow
	TotalPotentialUplift float64
}

// TotalsRow is the organization-wide attribution summary.
type TotalsRow struct {
	Spend              float64
	Revenue            float64
	ROAS               *float64
	LTVAdjustedRevenue float64
	LTVROAS            *float64
}

// ChannelRow is one channel in the attribution table.
type ChannelRow struct {
	ChannelID string
	Name      string
	Spend     float64
	Revenue   float64
	ROAS      *float64
	LTVROAS   *float64
	Status    string
}

// FatigueRow is one flagged creative.
type FatigueRow struct {
	CreativeID     string
	ChannelID      string
	BaselineCVR    float64
	RecentCVR      float64
	FatigueProb7D  float64
	FatigueProb14D float64
	PredictedDrop  float64
	Severity       string
}

// DecayRow is one channel flagged for ROI decay.
type DecayRow struct {
	ChannelID    string
	Name         string
	BaselineROAS float64
	RecentROAS   float64
	DropPercent  float64
	SpendTrend   string
	Severity     string
}

// DriftRow is the cohort LTV drift finding.
type DriftRow struct {
	Detected         bool
	InsufficientData bool
	BaselineLTV90D   float64
	RecentLTV90D     float64
	DriftPercent     float64
	Severity         string
	Direction        string
}

// ActionRow is one recommended action.
type ActionRow struct {
	Priority           int
	ActionType         string
	TargetFrom         string
	TargetTo           string
	CurrentAmount      float64
	RecommendedAmount  float64
	ChangePercent      float64
	EstimatedImpactUSD float64
	Urgency            string
	Rationale          string
}
