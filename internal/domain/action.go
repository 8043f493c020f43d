package domain

import "time"

// ActionType identifies a recommendation generator.
type ActionType string

const (
	ActionShiftBudget    ActionType = "shift_budget"
	ActionPauseCreative  ActionType = "pause_creative"
	ActionIncreaseBudget ActionType = "increase_budget"
	ActionFocusRetention ActionType = "focus_retention"
)

// GeneratorOrder is the fixed tie-break order of the four generators.
func (t ActionType) GeneratorOrder() int {
	switch t {
	case ActionShiftBudget:
		return 1
	case ActionPauseCreative:
		return 2
	case ActionIncreaseBudget:
		return 3
	case ActionFocusRetention:
		return 4
	}
	return 5
}

// ActionTarget names the entities an action applies to. To is empty for
// actions with a single target.
type ActionTarget struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

// ActionAmount carries the current and recommended budget figures.
type ActionAmount struct {
	Current       float64 `json:"current"`
	Recommended   float64 `json:"recommended"`
	ChangePercent float64 `json:"change_percent"`
}

// Action is one recommended budget/creative move with a dollar-impact
// estimate. The set of actions for a run is immutable once computed.
type Action struct {
	ActionType         ActionType   `json:"action_type"`
	Priority           int          `json:"priority"` // 1..3
	Target             ActionTarget `json:"target"`
	Amount             ActionAmount `json:"amount"`
	EstimatedImpactUSD float64      `json:"estimated_impact_usd"`
	Rationale          string       `json:"rationale"`
	Urgency            Severity     `json:"urgency"`
	Severity           Severity     `json:"severity"`
	Confidence         Severity     `json:"confidence"`
	Score              float64      `json:"score"`
}

// Recommendations is the Recommendation Engine output for one run:
// at most three ranked actions plus the summed uplift estimate.
type Recommendations struct {
	Actions               []Action  `json:"actions"`
	TotalPotentialUplift  float64   `json:"total_potential_uplift_usd"`
	Timestamp             time.Time `json:"timestamp"`
}
