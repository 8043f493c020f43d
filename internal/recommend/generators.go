package recommend

import (
	"fmt"
	"sort"

	"adbrain/internal/domain"
)

// shiftBudget proposes moving budget from each loser or decaying channel to
// the highest-ROAS winner with remaining capacity.
func shiftBudget(snapshot *domain.AttributionSnapshot, assessment *domain.RiskAssessment, cfg domain.Thresholds) []domain.Action {
	// Sources: losers from attribution plus decaying channels from risk.
	sourceIDs := make(map[string]bool)
	for _, ch := range snapshot.Channels {
		if ch.Status == domain.ChannelLoser {
			sourceIDs[ch.ChannelID] = true
		}
	}
	for _, d := range assessment.ROIDecayChannels {
		sourceIDs[d.ChannelID] = true
	}

	// Winners with capacity left, best ROAS first.
	var winners []*domain.ChannelAttribution
	for i := range snapshot.Channels {
		ch := &snapshot.Channels[i]
		if ch.Status == domain.ChannelWinner && ch.ROAS != nil && ch.Spend < cfg.ChannelCapacityUSD {
			winners = append(winners, ch)
		}
	}
	sort.Slice(winners, func(i, j int) bool {
		if *winners[i].ROAS != *winners[j].ROAS {
			return *winners[i].ROAS > *winners[j].ROAS
		}
		return winners[i].ChannelID < winners[j].ChannelID
	})
	if len(winners) == 0 {
		return nil
	}

	ids := make([]string, 0, len(sourceIDs))
	for id := range sourceIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var actions []domain.Action
	for _, id := range ids {
		source := snapshot.ChannelByID(id)
		if source == nil || source.ROAS == nil || source.Spend == 0 {
			continue
		}
		var target *domain.ChannelAttribution
		for _, w := range winners {
			if w.ChannelID != id {
				target = w
				break
			}
		}
		if target == nil {
			continue
		}

		amount := source.Spend * cfg.ShiftPercent
		impact := amount * (*target.ROAS - *source.ROAS)
		if impact <= 0 {
			continue
		}

		decay := assessment.DecayByChannel(id)
		severity := domain.SeverityMedium
		urgency := domain.SeverityMedium
		if decay != nil {
			severity = decay.Severity
			if decay.Severity == domain.SeverityHigh {
				urgency = domain.SeverityHigh
			}
		}
		confidence := domain.SeverityMedium
		if decay != nil && source.Status == domain.ChannelLoser {
			// Attribution and risk agree on the source channel.
			confidence = domain.SeverityHigh
		}

		actions = append(actions, domain.Action{
			ActionType: domain.ActionShiftBudget,
			Target:     domain.ActionTarget{From: source.ChannelID, To: target.ChannelID},
			Amount: domain.ActionAmount{
				Current:       source.Spend,
				Recommended:   source.Spend - amount,
				ChangePercent: -cfg.ShiftPercent * 100,
			},
			EstimatedImpactUSD: impact,
			Rationale: fmt.Sprintf("%s is underperforming (ROAS %.2f); shifting %.0f%% of its spend to %s (ROAS %.2f)",
				source.Name, *source.ROAS, cfg.ShiftPercent*100, target.Name, *target.ROAS),
			Urgency:    urgency,
			Severity:   severity,
			Confidence: confidence,
		})
	}
	return actions
}

// pauseCreative proposes pausing each creative whose 7-day fatigue
// probability exceeds the configured threshold.
func pauseCreative(assessment *domain.RiskAssessment, cfg domain.Thresholds) []domain.Action {
	var actions []domain.Action
	for _, f := range assessment.CreativeFatigue {
		if f.FatigueProb7D <= cfg.PauseProbThreshold {
			continue
		}
		urgency := domain.SeverityMedium
		confidence := domain.SeverityMedium
		if f.FatigueProb7D > cfg.PauseUrgentProb {
			urgency = domain.SeverityHigh
			confidence = domain.SeverityHigh
		}
		horizon := float64(cfg.RecentDays)
		actions = append(actions, domain.Action{
			ActionType: domain.ActionPauseCreative,
			Target:     domain.ActionTarget{From: f.CreativeID},
			Amount: domain.ActionAmount{
				Current:       f.RecentDailySpend,
				Recommended:   0,
				ChangePercent: -100,
			},
			EstimatedImpactUSD: f.RecentDailySpend * f.PredictedDrop * horizon,
			Rationale: fmt.Sprintf("creative %s has a %.0f%% fatigue probability over %d days (predicted performance drop %.0f%%)",
				f.CreativeID, f.FatigueProb7D*100, cfg.RecentDays, f.PredictedDrop*100),
			Urgency:    urgency,
			Severity:   f.Severity,
			Confidence: confidence,
		})
	}
	return actions
}

// increaseBudget proposes scaling up channels well above blended ROAS that
// show no decay signal.
func increaseBudget(snapshot *domain.AttributionSnapshot, assessment *domain.RiskAssessment, cfg domain.Thresholds) []domain.Action {
	blended := snapshot.Totals.ROAS
	if blended == nil {
		return nil
	}

	var actions []domain.Action
	for _, ch := range snapshot.Channels {
		if ch.ROAS == nil || *ch.ROAS <= *blended*cfg.IncreaseMultiplier {
			continue
		}
		if assessment.DecayByChannel(ch.ChannelID) != nil {
			continue
		}
		increase := ch.Spend * cfg.IncreasePercent
		actions = append(actions, domain.Action{
			ActionType: domain.ActionIncreaseBudget,
			Target:     domain.ActionTarget{From: ch.ChannelID},
			Amount: domain.ActionAmount{
				Current:       ch.Spend,
				Recommended:   ch.Spend + increase,
				ChangePercent: cfg.IncreasePercent * 100,
			},
			EstimatedImpactUSD: increase * (*ch.ROAS - *blended),
			Rationale: fmt.Sprintf("%s runs at ROAS %.2f vs blended %.2f with no decay signal; room to scale",
				ch.Name, *ch.ROAS, *blended),
			Urgency:    domain.SeverityLow,
			Severity:   domain.SeverityLow,
			Confidence: domain.SeverityHigh,
		})
	}
	return actions
}

// focusRetention emits a single retention action when LTV drift is severe.
func focusRetention(snapshot *domain.AttributionSnapshot, assessment *domain.RiskAssessment, cfg domain.Thresholds) []domain.Action {
	drift := assessment.LTVDrift
	if !drift.Detected || drift.Severity != domain.SeverityHigh {
		return nil
	}
	impact := drift.DriftPercent * snapshot.Totals.LTVAdjustedRevenue
	return []domain.Action{{
		ActionType:         domain.ActionFocusRetention,
		Target:             domain.ActionTarget{From: "customer_base"},
		Amount:             domain.ActionAmount{},
		EstimatedImpactUSD: impact,
		Rationale: fmt.Sprintf("cohort 90-day LTV is down %.1f%% vs baseline (%s); projected revenue at risk without retention focus",
			drift.DriftPercent*100, drift.Direction),
		Urgency:    domain.SeverityHigh,
		Severity:   domain.SeverityHigh,
		Confidence: domain.SeverityMedium,
	}}
}
