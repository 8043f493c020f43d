package domain

import "time"

// AttributionTotals holds organization-wide totals for one window.
// ROAS is nil when total spend is zero (reported, never computed as a
// division by zero).
type AttributionTotals struct {
	Spend              float64  `json:"spend"`
	Revenue            float64  `json:"revenue"`
	ROAS               *float64 `json:"roas"`
	LTVAdjustedRevenue float64  `json:"ltv_adjusted_revenue"`
	LTVROAS            *float64 `json:"ltv_roas"`
}

// ChannelAttribution is the per-channel slice of an AttributionSnapshot.
// ROAS is nil for zero-spend channels; such channels classify as neutral.
type ChannelAttribution struct {
	ChannelID string        `json:"channel_id"`
	Name      string        `json:"name"`
	Spend     float64       `json:"spend"`
	Revenue   float64       `json:"revenue"`
	ROAS      *float64      `json:"roas"`
	LTVROAS   *float64      `json:"ltv_roas"`
	Status    ChannelStatus `json:"status"`
}

// AttributionSnapshot is the Attribution Engine output: produced fresh on
// each pipeline run, immutable afterward, superseded by the next run.
type AttributionSnapshot struct {
	Totals    AttributionTotals    `json:"totals"`
	Channels  []ChannelAttribution `json:"channels"`
	LTVFactor float64              `json:"ltv_factor"`
	Warnings  []string             `json:"warnings,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// ChannelByID returns the per-channel row for a channel id, or nil.
func (s *AttributionSnapshot) ChannelByID(channelID string) *ChannelAttribution {
	for i := range s.Channels {
		if s.Channels[i].ChannelID == channelID {
			return &s.Channels[i]
		}
	}
	return nil
}
