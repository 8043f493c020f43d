package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Brain Report: %s\n\n", r.OrgID))
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Window: %s to %s | Generated: %s\n\n",
		r.WindowStart.Format("2006-01-02"),
		r.WindowEnd.Format("2006-01-02"),
		r.GeneratedAt.Format(time.RFC3339)))

	// Attribution
	sb.WriteString("## Attribution\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Spend | %.2f |\n", r.Totals.Spend))
	sb.WriteString(fmt.Sprintf("| Total Revenue | %.2f |\n", r.Totals.Revenue))
	sb.WriteString(fmt.Sprintf("| Blended ROAS | %s |\n", fmtRatio(r.Totals.ROAS)))
	sb.WriteString(fmt.Sprintf("| LTV-Adjusted Revenue | %.2f |\n", r.Totals.LTVAdjustedRevenue))
	sb.WriteString(fmt.Sprintf("| LTV ROAS | %s |\n", fmtRatio(r.Totals.LTVROAS)))
	sb.WriteString(fmt.Sprintf("| LTV Factor | %.4f |\n", r.LTVFactor))
	sb.WriteString("\n")

	sb.WriteString("### Channels\n\n")
	if len(r.Channels) > 0 {
		sb.WriteString("| Channel | Spend | Revenue | ROAS | LTV ROAS | Status |\n")
		sb.WriteString("|---------|-------|---------|------|----------|--------|\n")
		for _, ch := range r.Channels {
			name := ch.Name
			if name == "" {
				name = ch.ChannelID
			}
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %s | %s | %s |\n",
				name, ch.Spend, ch.Revenue, fmtRatio(ch.ROAS), fmtRatio(ch.LTVROAS), ch.Status))
		}
	} else {
		sb.WriteString("No channel data available.\n")
	}
	sb.WriteString("\n")

	if len(r.Warnings) > 0 {
		sb.WriteString("### Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Risk
	sb.WriteString(fmt.Sprintf("## Risk: %s\n\n", r.RiskLevel))

	sb.WriteString("### Creative Fatigue\n\n")
	if len(r.CreativeFatigue) > 0 {
		sb.WriteString("| Creative | Channel | CVR Base | CVR Recent | P(7d) | P(14d) | Predicted Drop | Severity |\n")
		sb.WriteString("|----------|---------|----------|------------|-------|--------|----------------|----------|\n")
		for _, f := range r.CreativeFatigue {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %.4f | %.4f | %.4f | %s |\n",
				f.CreativeID, f.ChannelID, f.BaselineCVR, f.RecentCVR,
				f.FatigueProb7D, f.FatigueProb14D, f.PredictedDrop, f.Severity))
		}
	} else {
		sb.WriteString("No fatigued creatives detected.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### ROI Decay\n\n")
	if len(r.ROIDecay) > 0 {
		sb.WriteString("| Channel | ROAS Base | ROAS Recent | Drop% | Spend Trend | Severity |\n")
		sb.WriteString("|---------|-----------|-------------|-------|-------------|----------|\n")
		for _, d := range r.ROIDecay {
			name := d.Name
			if name == "" {
				name = d.ChannelID
			}
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.2f | %s | %s |\n",
				name, d.BaselineROAS, d.RecentROAS, d.DropPercent*100, d.SpendTrend, d.Severity))
		}
	} else {
		sb.WriteString("No decaying channels detected.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### LTV Drift\n\n")
	switch {
	case r.LTVDrift.InsufficientData:
		sb.WriteString("Insufficient cohort history for drift analysis.\n")
	case r.LTVDrift.Detected:
		sb.WriteString(fmt.Sprintf("Detected: baseline %.2f vs recent %.2f (%.2f%%), %s, %s.\n",
			r.LTVDrift.BaselineLTV90D, r.LTVDrift.RecentLTV90D,
			r.LTVDrift.DriftPercent*100, r.LTVDrift.Severity, r.LTVDrift.Direction))
	default:
		sb.WriteString(fmt.Sprintf("Not detected (drift %.2f%% below threshold).\n",
			r.LTVDrift.DriftPercent*100))
	}
	sb.WriteString("\n")

	// Recommendations
	sb.WriteString("## Recommendations\n\n")
	if len(r.Actions) > 0 {
		sb.WriteString("| # | Action | Target | Current | Recommended | Change% | Impact USD | Urgency |\n")
		sb.WriteString("|---|--------|--------|---------|-------------|---------|------------|--------|\n")
		for _, a := range r.Actions {
			target := a.TargetFrom
			if a.TargetTo != "" {
				target = a.TargetFrom + " -> " + a.TargetTo
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %.2f | %.1f | %.2f | %s |\n",
				a.Priority, a.ActionType, target,
				a.CurrentAmount, a.RecommendedAmount, a.ChangePercent,
				a.EstimatedImpactUSD, a.Urgency))
		}
		sb.WriteString("\n")
		for _, a := range r.Actions {
			sb.WriteString(fmt.Sprintf("%d. %s\n", a.Priority, a.Rationale))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Total potential uplift: %.2f USD\n", r.TotalPotentialUplift))
	} else {
		sb.WriteString("No actions recommended.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// fmtRatio renders a nullable ratio; zero-spend rows carry no ROAS.
func fmtRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}
