package risk

import (
	"time"

	"adbrain/internal/domain"
)

// entitySeries is the per-entity slice of the window's rows, split into the
// recent and baseline comparison windows relative to the window end day.
type entitySeries struct {
	all      []*domain.DailyMetric
	recent   []*domain.DailyMetric
	baseline []*domain.DailyMetric
	days     int // distinct days of history in the window
}

// splitWindows partitions rows into recent (last RecentDays ending at end)
// and baseline (same length, ending BaselineOffsetDays before end).
func splitWindows(rows []*domain.DailyMetric, end time.Time, cfg domain.Thresholds) entitySeries {
	endDay := domain.Day(end)
	recentStart := endDay.AddDate(0, 0, -(cfg.RecentDays - 1))
	baselineEnd := endDay.AddDate(0, 0, -cfg.BaselineOffsetDays)
	baselineStart := baselineEnd.AddDate(0, 0, -(cfg.RecentDays - 1))

	s := entitySeries{all: rows}
	seen := make(map[time.Time]struct{})
	for _, m := range rows {
		d := domain.Day(m.Date)
		seen[d] = struct{}{}
		if !d.Before(recentStart) && !d.After(endDay) {
			s.recent = append(s.recent, m)
		}
		if !d.Before(baselineStart) && !d.After(baselineEnd) {
			s.baseline = append(s.baseline, m)
		}
	}
	s.days = len(seen)
	return s
}

// hasHistory reports whether the series meets the minimum history
// requirement and both comparison windows are populated.
func (s entitySeries) hasHistory(cfg domain.Thresholds) bool {
	return s.days >= cfg.MinHistoryDays && len(s.recent) > 0 && len(s.baseline) > 0
}

// avg returns the mean of f over rows, or 0 for an empty slice.
func avg(rows []*domain.DailyMetric, f func(*domain.DailyMetric) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range rows {
		sum += f(m)
	}
	return sum / float64(len(rows))
}

// distinctDays counts distinct UTC days across rows.
func distinctDays(rows []*domain.DailyMetric) int {
	seen := make(map[time.Time]struct{}, len(rows))
	for _, m := range rows {
		seen[domain.Day(m.Date)] = struct{}{}
	}
	return len(seen)
}

// relDrop returns (baseline-recent)/baseline, or 0 when baseline is not positive.
func relDrop(baseline, recent float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (baseline - recent) / baseline
}

// relRise returns (recent-baseline)/baseline, or 0 when baseline is not positive.
func relRise(baseline, recent float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (recent - baseline) / baseline
}

// clip01 clamps v to [0,1].
func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
