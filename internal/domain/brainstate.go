package domain

import "time"

// Window is one reporting window: inclusive UTC day range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether the UTC day of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(w.Start)) && !d.After(Day(w.End))
}

// BrainState is the cached combination of the three engine outputs for one
// (organization, window). The orchestrator is its sole writer; a new run
// supersedes the cached entry rather than updating it in place.
type BrainState struct {
	OrgID       string               `json:"org_id"`
	Window      Window               `json:"window"`
	RunID       string               `json:"run_id"`
	Memory      *AttributionSnapshot `json:"memory"`
	Oracle      *RiskAssessment      `json:"oracle"`
	Curiosity   *Recommendations     `json:"curiosity"`
	GeneratedAt time.Time            `json:"generated_at"`
}
