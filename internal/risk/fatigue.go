package risk

import (
	"sort"
	"time"

	"adbrain/internal/domain"
)

// Fatigue trigger names, reported on each signal.
const (
	TriggerCVRDrop       = "cvr_drop"
	TriggerCPARise       = "cpa_rise"
	TriggerHighFrequency = "high_frequency"
)

// detectCreativeFatigue compares each creative's recent window against its
// baseline window. Creatives with insufficient history are skipped, not
// flagged. Output is sorted by creative_id for deterministic runs.
func detectCreativeFatigue(rows []*domain.DailyMetric, end time.Time, cfg domain.Thresholds) []domain.CreativeFatigueSignal {
	byCreative := make(map[string][]*domain.DailyMetric)
	for _, m := range rows {
		if m.CreativeID == "" {
			continue
		}
		byCreative[m.CreativeID] = append(byCreative[m.CreativeID], m)
	}

	ids := make([]string, 0, len(byCreative))
	for id := range byCreative {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var signals []domain.CreativeFatigueSignal
	for _, id := range ids {
		series := splitWindows(byCreative[id], end, cfg)
		if !series.hasHistory(cfg) {
			continue
		}
		if sig, ok := evaluateFatigue(id, series, cfg); ok {
			signals = append(signals, sig)
		}
	}
	return signals
}

// evaluateFatigue applies the three fatigue triggers to one creative's
// series and, when any fires, derives probabilities and predicted drop.
func evaluateFatigue(creativeID string, s entitySeries, cfg domain.Thresholds) (domain.CreativeFatigueSignal, bool) {
	baseCVR := avg(s.baseline, func(m *domain.DailyMetric) float64 { return m.CVR })
	recentCVR := avg(s.recent, func(m *domain.DailyMetric) float64 { return m.CVR })
	baseCPA := avg(s.baseline, func(m *domain.DailyMetric) float64 { return m.CPA })
	recentCPA := avg(s.recent, func(m *domain.DailyMetric) float64 { return m.CPA })
	recentFreq := avg(s.recent, func(m *domain.DailyMetric) float64 { return m.Frequency })

	cvrDrop := relDrop(baseCVR, recentCVR)
	cpaRise := relRise(baseCPA, recentCPA)

	var triggers []string
	// deviation is the largest normalized excess over a triggering
	// threshold; probabilities grow monotonically with it.
	deviation := 0.0
	if cvrDrop > cfg.CVRDropThreshold {
		triggers = append(triggers, TriggerCVRDrop)
		deviation = maxf(deviation, (cvrDrop-cfg.CVRDropThreshold)/cfg.CVRDropThreshold)
	}
	if cpaRise > cfg.CPARiseThreshold {
		triggers = append(triggers, TriggerCPARise)
		deviation = maxf(deviation, (cpaRise-cfg.CPARiseThreshold)/cfg.CPARiseThreshold)
	}
	if recentFreq > cfg.FrequencyThreshold {
		triggers = append(triggers, TriggerHighFrequency)
		deviation = maxf(deviation, (recentFreq-cfg.FrequencyThreshold)/cfg.FrequencyThreshold)
	}
	if len(triggers) == 0 {
		return domain.CreativeFatigueSignal{}, false
	}

	predictedDrop := maxf(maxf(cvrDrop, 0), maxf(cpaRise, 0))

	recentSpend := 0.0
	for _, m := range s.recent {
		recentSpend += m.Spend
	}
	recentDays := distinctDays(s.recent)
	dailySpend := 0.0
	if recentDays > 0 {
		dailySpend = recentSpend / float64(recentDays)
	}

	first := s.all[0]
	return domain.CreativeFatigueSignal{
		CreativeID:       creativeID,
		CampaignID:       first.CampaignID,
		ChannelID:        first.ChannelID,
		BaselineCVR:      baseCVR,
		RecentCVR:        recentCVR,
		BaselineCPA:      baseCPA,
		RecentCPA:        recentCPA,
		RecentFrequency:  recentFreq,
		Triggers:         triggers,
		FatigueProb7D:    clip01(0.5 + 0.5*deviation),
		FatigueProb14D:   clip01(0.5 + 0.7*deviation),
		PredictedDrop:    predictedDrop,
		RecentDailySpend: dailySpend,
		Severity:         cfg.SeverityFor(predictedDrop),
	}, true
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
