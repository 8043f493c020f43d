package risk

import (
	"sort"
	"time"

	"adbrain/internal/domain"
)

// Spend trend labels on ROI decay signals.
const (
	SpendIncreasing = "increasing"
	SpendFlat       = "flat"
	SpendDecreasing = "decreasing"
)

// spendTrendTolerance is the band around the baseline average inside which
// spend counts as flat.
const spendTrendTolerance = 0.05

// detectROIDecay compares each channel's recent-window ROAS against its
// baseline-window ROAS. Channels with insufficient history are skipped.
// Output is sorted by channel_id for deterministic runs.
func detectROIDecay(rows []*domain.DailyMetric, attribution *domain.AttributionSnapshot, end time.Time, cfg domain.Thresholds) []domain.ROIDecaySignal {
	byChannel := make(map[string][]*domain.DailyMetric)
	for _, m := range rows {
		byChannel[m.ChannelID] = append(byChannel[m.ChannelID], m)
	}

	ids := make([]string, 0, len(byChannel))
	for id := range byChannel {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var signals []domain.ROIDecaySignal
	for _, id := range ids {
		series := splitWindows(byChannel[id], end, cfg)
		if !series.hasHistory(cfg) {
			continue
		}
		if sig, ok := evaluateDecay(id, series, cfg); ok {
			if ch := attribution.ChannelByID(id); ch != nil {
				sig.Name = ch.Name
			} else {
				sig.Name = id
			}
			signals = append(signals, sig)
		}
	}
	return signals
}

// evaluateDecay applies the two decay triggers to one channel's series:
// a recent ROAS drop beyond the threshold, or spend holding flat-or-rising
// while ROAS holds flat-or-declining.
func evaluateDecay(channelID string, s entitySeries, cfg domain.Thresholds) (domain.ROIDecaySignal, bool) {
	baseSpend, baseRevenue := sumSpendRevenue(s.baseline)
	recentSpend, recentRevenue := sumSpendRevenue(s.recent)
	if baseSpend == 0 {
		return domain.ROIDecaySignal{}, false
	}

	baseROAS := baseRevenue / baseSpend
	recentROAS := 0.0
	if recentSpend > 0 {
		recentROAS = recentRevenue / recentSpend
	}

	drop := relDrop(baseROAS, recentROAS)
	trend := spendTrend(s)

	dropTriggered := drop > cfg.ROASDropThreshold
	flatSpendDecline := trend != SpendDecreasing && recentROAS <= baseROAS
	if !dropTriggered && !flatSpendDecline {
		return domain.ROIDecaySignal{}, false
	}

	return domain.ROIDecaySignal{
		ChannelID:    channelID,
		BaselineROAS: baseROAS,
		RecentROAS:   recentROAS,
		DropPercent:  drop,
		SpendTrend:   trend,
		Severity:     cfg.SeverityFor(drop),
	}, true
}

// spendTrend compares average daily spend between the two windows.
func spendTrend(s entitySeries) string {
	baseDays := distinctDays(s.baseline)
	recentDays := distinctDays(s.recent)
	if baseDays == 0 || recentDays == 0 {
		return SpendFlat
	}
	baseSpend, _ := sumSpendRevenue(s.baseline)
	recentSpend, _ := sumSpendRevenue(s.recent)
	baseDaily := baseSpend / float64(baseDays)
	recentDaily := recentSpend / float64(recentDays)

	switch {
	case recentDaily > baseDaily*(1+spendTrendTolerance):
		return SpendIncreasing
	case recentDaily < baseDaily*(1-spendTrendTolerance):
		return SpendDecreasing
	default:
		return SpendFlat
	}
}

func sumSpendRevenue(rows []*domain.DailyMetric) (spend, revenue float64) {
	for _, m := range rows {
		spend += m.Spend
		revenue += m.Revenue
	}
	return spend, revenue
}
