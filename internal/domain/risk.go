package domain

import "time"

// Severity is the ordinal severity of a single risk finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// AtLeast reports whether s is v or more severe.
func (s Severity) AtLeast(v Severity) bool {
	return severityRank(s) >= severityRank(v)
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// RiskLevel is the aggregated, organization-wide severity for one run.
type RiskLevel string

const (
	RiskGreen  RiskLevel = "GREEN"
	RiskYellow RiskLevel = "YELLOW"
	RiskRed    RiskLevel = "RED"
)

// DriftDirection describes whether LTV drift is worsening between the two
// most recent cohort-to-cohort deltas.
type DriftDirection string

const (
	DriftAccelerating DriftDirection = "accelerating"
	DriftStabilizing  DriftDirection = "stabilizing"
)

// CreativeFatigueSignal is one creative flagged by the fatigue detector.
type CreativeFatigueSignal struct {
	CreativeID        string   `json:"creative_id"`
	CampaignID        string   `json:"campaign_id"`
	ChannelID         string   `json:"channel_id"`
	BaselineCVR       float64  `json:"baseline_cvr"`
	RecentCVR         float64  `json:"recent_cvr"`
	BaselineCPA       float64  `json:"baseline_cpa"`
	RecentCPA         float64  `json:"recent_cpa"`
	RecentFrequency   float64  `json:"recent_frequency"`
	Triggers          []string `json:"triggers"`
	FatigueProb7D     float64  `json:"fatigue_probability_7d"`
	FatigueProb14D    float64  `json:"fatigue_probability_14d"`
	PredictedDrop     float64  `json:"predicted_performance_drop"`
	RecentDailySpend  float64  `json:"recent_daily_spend"`
	Severity          Severity `json:"severity"`
}

// ROIDecaySignal is one channel flagged by the ROI decay detector.
type ROIDecaySignal struct {
	ChannelID    string   `json:"channel_id"`
	Name         string   `json:"name"`
	BaselineROAS float64  `json:"baseline_roas"`
	RecentROAS   float64  `json:"recent_roas"`
	DropPercent  float64  `json:"drop_percent"`
	SpendTrend   string   `json:"spend_trend"` // "increasing" | "flat" | "decreasing"
	Severity     Severity `json:"severity"`
}

// LTVDriftSignal is the cohort LTV drift finding for one run.
type LTVDriftSignal struct {
	Detected         bool           `json:"detected"`
	InsufficientData bool           `json:"insufficient_data,omitempty"`
	BaselineLTV90D   float64        `json:"baseline_ltv_90d"`
	RecentLTV90D     float64        `json:"recent_ltv_90d"`
	DriftPercent     float64        `json:"drift_percent"`
	Severity         Severity       `json:"severity,omitempty"`
	Direction        DriftDirection `json:"direction,omitempty"`
}

// RiskAssessment is the Risk Engine output: created per run, immutable
// afterward.
type RiskAssessment struct {
	CreativeFatigue  []CreativeFatigueSignal `json:"creative_fatigue"`
	ROIDecayChannels []ROIDecaySignal        `json:"roi_decay_channels"`
	LTVDrift         LTVDriftSignal          `json:"ltv_drift"`
	RiskLevel        RiskLevel               `json:"risk_level"`
	Timestamp        time.Time               `json:"timestamp"`
}

// DecayByChannel returns the decay signal for a channel id, or nil.
func (r *RiskAssessment) DecayByChannel(channelID string) *ROIDecaySignal {
	for i := range r.ROIDecayChannels {
		if r.ROIDecayChannels[i].ChannelID == channelID {
			return &r.ROIDecayChannels[i]
		}
	}
	return nil
}
