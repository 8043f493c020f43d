package recommend

import (
	"sort"

	"adbrain/internal/domain"
)

// tagWeight maps a severity-class tag onto its scoring weight.
func tagWeight(s domain.Severity) float64 {
	switch s {
	case domain.SeverityHigh:
		return 3
	case domain.SeverityMedium:
		return 2
	default:
		return 1
	}
}

// score computes the weighted ranking score for a candidate action.
func score(a *domain.Action, cfg domain.Thresholds) float64 {
	return a.EstimatedImpactUSD*cfg.ImpactWeight +
		tagWeight(a.Severity)*cfg.SeverityWeight +
		tagWeight(a.Confidence)*cfg.ConfidenceWeight +
		tagWeight(a.Urgency)*cfg.UrgencyWeight
}

// rankAndSelect scores all candidates, sorts them (score desc, then impact
// desc, then generator order), and keeps the top MaxActions with at most
// MaxIncreaseCount increase_budget actions. Selected actions get priorities
// 1..MaxActions.
func rankAndSelect(candidates []domain.Action, cfg domain.Thresholds) []domain.Action {
	for i := range candidates {
		candidates[i].Score = score(&candidates[i], cfg)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].EstimatedImpactUSD != candidates[j].EstimatedImpactUSD {
			return candidates[i].EstimatedImpactUSD > candidates[j].EstimatedImpactUSD
		}
		return candidates[i].ActionType.GeneratorOrder() < candidates[j].ActionType.GeneratorOrder()
	})

	selected := make([]domain.Action, 0, cfg.MaxActions)
	increases := 0
	for _, a := range candidates {
		if len(selected) == cfg.MaxActions {
			break
		}
		if a.ActionType == domain.ActionIncreaseBudget {
			if increases == cfg.MaxIncreaseCount {
				// Diversity cap: the next-best non-increase candidate
				// takes this slot instead.
				continue
			}
			increases++
		}
		a.Priority = len(selected) + 1
		selected = append(selected, a)
	}
	return selected
}
