package reporting

import (
	"fmt"
	"strings"
)

// RenderActionsCSV renders recommended actions as CSV string.
func RenderActionsCSV(actions []ActionRow) string {
	var sb strings.Builder

	sb.WriteString("priority,action_type,target_from,target_to,current,recommended,change_percent,estimated_impact_usd,urgency\n")

	for _, a := range actions {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%.2f,%.2f,%.2f,%.2f,%s\n",
			a.Priority,
			a.ActionType,
			a.TargetFrom,
			a.TargetTo,
			a.CurrentAmount,
			a.RecommendedAmount,
			a.ChangePercent,
			a.EstimatedImpactUSD,
			a.Urgency,
		))
	}

	return sb.String()
}

// RenderChannelsCSV renders per-channel attribution as CSV string.
func RenderChannelsCSV(channels []ChannelRow) string {
	var sb strings.Builder

	sb.WriteString("channel_id,name,spend,revenue,roas,ltv_roas,status\n")

	for _, ch := range channels {
		sb.WriteString(fmt.Sprintf("%s,%s,%.2f,%.2f,%s,%s,%s\n",
			ch.ChannelID,
			ch.Name,
			ch.Spend,
			ch.Revenue,
			csvRatio(ch.ROAS),
			csvRatio(ch.LTVROAS),
			ch.Status,
		))
	}

	return sb.String()
}

func csvRatio(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}
