package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMetric is returned for rows that violate the DailyMetric
// invariants. Offending rows are rejected individually; they never abort
// a pipeline run.
var ErrInvalidMetric = errors.New("invalid metric row")

// DailyMetric is one row of the performance time series:
// one row per (date, channel, campaign, creative).
// Append-only; never mutated after ingestion for a given key.
type DailyMetric struct {
	OrgID       string
	Date        time.Time // UTC day
	ChannelID   string
	CampaignID  string
	CreativeID  string
	Impressions int64
	Clicks      int64
	Spend       float64
	Conversions int64
	Revenue     float64
	Frequency   float64 // average ad exposures per user
	CVR         float64 // conversion rate, [0,1]
	CPA         float64 // cost per acquisition
}

// Validate checks the DailyMetric invariants:
// spend >= 0, revenue >= 0, cvr in [0,1], frequency >= 0.
func (m *DailyMetric) Validate() error {
	if m.Spend < 0 {
		return fmt.Errorf("%w: negative spend %.2f", ErrInvalidMetric, m.Spend)
	}
	if m.Revenue < 0 {
		return fmt.Errorf("%w: negative revenue %.2f", ErrInvalidMetric, m.Revenue)
	}
	if m.CVR < 0 || m.CVR > 1 {
		return fmt.Errorf("%w: cvr %.4f outside [0,1]", ErrInvalidMetric, m.CVR)
	}
	if m.Frequency < 0 {
		return fmt.Errorf("%w: negative frequency %.2f", ErrInvalidMetric, m.Frequency)
	}
	return nil
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
