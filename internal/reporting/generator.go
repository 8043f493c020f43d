package reporting

import (
	"context"
	"fmt"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// Generator produces reports from cached pipeline runs.
type Generator struct {
	stateStore storage.BrainStateStore
}

// NewGenerator creates a new report generator.
func NewGenerator(stateStore storage.BrainStateStore) *Generator {
	return &Generator{stateStore: stateStore}
}

// Latest builds a report from the most recent cached run for an org.
func (g *Generator) Latest(ctx context.Context, orgID string) (*Report, error) {
	state, err := g.stateStore.Latest(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load latest state for %s: %w", orgID, err)
	}
	return FromState(state), nil
}

// ForWindow builds a report from the cached run for a specific window.
func (g *Generator) ForWindow(ctx context.Context, orgID string, window domain.Window) (*Report, error) {
	state, err := g.stateStore.Get(ctx, orgID, window)
	if err != nil {
		return nil, fmt.Errorf("load state for %s %s..%s: %w",
			orgID, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"), err)
	}
	return FromState(state), nil
}

// FromState flattens a cached state into report rows.
func FromState(state *domain.BrainState) *Report {
	r := &Report{
		OrgID:       state.OrgID,
		RunID:       state.RunID,
		WindowStart: state.Window.Start,
		WindowEnd:   state.Window.End,
		GeneratedAt: state.GeneratedAt,
	}

	if snap := state.Memory; snap != nil {
		r.Totals = TotalsRow{
			Spend:              snap.Totals.Spend,
			Revenue:            snap.Totals.Revenue,
			ROAS:               snap.Totals.ROAS,
			LTVAdjustedRevenue: snap.Totals.LTVAdjustedRevenue,
			LTVROAS:            snap.Totals.LTVROAS,
		}
		r.LTVFactor = snap.LTVFactor
		r.Warnings = append(r.Warnings, snap.Warnings...)
		for _, ch := range snap.Channels {
			r.Channels = append(r.Channels, ChannelRow{
				ChannelID: ch.ChannelID,
				Name:      ch.Name,
				Spend:     ch.Spend,
				Revenue:   ch.Revenue,
				ROAS:      ch.ROAS,
				LTVROAS:   ch.LTVROAS,
				Status:    string(ch.Status),
			})
		}
	}

	if assess := state.Oracle; assess != nil {
		r.RiskLevel = string(assess.RiskLevel)
		for _, f := range assess.CreativeFatigue {
			r.CreativeFatigue = append(r.CreativeFatigue, FatigueRow{
				CreativeID:     f.CreativeID,
				ChannelID:      f.ChannelID,
				BaselineCVR:    f.BaselineCVR,
				RecentCVR:      f.RecentCVR,
				FatigueProb7D:  f.FatigueProb7D,
				FatigueProb14D: f.FatigueProb14D,
				PredictedDrop:  f.PredictedDrop,
				Severity:       string(f.Severity),
			})
		}
		for _, d := range assess.ROIDecayChannels {
			r.ROIDecay = append(r.ROIDecay, DecayRow{
				ChannelID:    d.ChannelID,
				Name:         d.Name,
				BaselineROAS: d.BaselineROAS,
				RecentROAS:   d.RecentROAS,
				DropPercent:  d.DropPercent,
				SpendTrend:   d.SpendTrend,
				Severity:     string(d.Severity),
			})
		}
		r.LTVDrift = DriftRow{
			Detected:         assess.LTVDrift.Detected,
			InsufficientData: assess.LTVDrift.InsufficientData,
			BaselineLTV90D:   assess.LTVDrift.BaselineLTV90D,
			RecentLTV90D:     assess.LTVDrift.RecentLTV90D,
			DriftPercent:     assess.LTVDrift.DriftPercent,
			Severity:         string(assess.LTVDrift.Severity),
			Direction:        string(assess.LTVDrift.Direction),
		}
	}

	if recs := state.Curiosity; recs != nil {
		r.TotalPotentialUplift = recs.TotalPotentialUplift
		for _, a := range recs.Actions {
			r.Actions = append(r.Actions, ActionRow{
				Priority:           a.Priority,
				ActionType:         string(a.ActionType),
				TargetFrom:         a.Target.From,
				TargetTo:           a.Target.To,
				CurrentAmount:      a.Amount.Current,
				RecommendedAmount:  a.Amount.Recommended,
				ChangePercent:      a.Amount.ChangePercent,
				EstimatedImpactUSD: a.EstimatedImpactUSD,
				Urgency:            string(a.Urgency),
				Rationale:          a.Rationale,
			})
		}
	}

	return r
}
