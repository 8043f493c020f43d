package recommend

import (
	"math"
	"testing"
	"time"

	"adbrain/internal/domain"
)

func fp(v float64) *float64 { return &v }

// scenarioSnapshot is the three-channel demo state: Meta a winner at ROAS
// 3.70, Google neutral at 2.50, TikTok a loser at 1.90, blended 2.85.
func scenarioSnapshot() *domain.AttributionSnapshot {
	return &domain.AttributionSnapshot{
		Totals: domain.AttributionTotals{
			Spend:              240_000,
			Revenue:            684_000,
			ROAS:               fp(2.85),
			LTVAdjustedRevenue: 684_000,
			LTVROAS:            fp(2.85),
		},
		Channels: []domain.ChannelAttribution{
			{ChannelID: "ch_google", Name: "Google", Spend: 80_000, Revenue: 200_000, ROAS: fp(2.5), Status: domain.ChannelNeutral},
			{ChannelID: "ch_meta", Name: "Meta", Spend: 100_000, Revenue: 370_000, ROAS: fp(3.7), Status: domain.ChannelWinner},
			{ChannelID: "ch_tiktok", Name: "TikTok", Spend: 60_000, Revenue: 114_000, ROAS: fp(1.9), Status: domain.ChannelLoser},
		},
		LTVFactor: 1.0,
	}
}

func scenarioAssessment() *domain.RiskAssessment {
	return &domain.RiskAssessment{
		CreativeFatigue: []domain.CreativeFatigueSignal{{
			CreativeID:       "cr_tt_1",
			CampaignID:       "cmp_tiktok",
			ChannelID:        "ch_tiktok",
			FatigueProb7D:    0.9375,
			FatigueProb14D:   1.0,
			PredictedDrop:    0.375,
			RecentDailySpend: 2000,
			Severity:         domain.SeverityHigh,
		}},
		ROIDecayChannels: []domain.ROIDecaySignal{{
			ChannelID:    "ch_tiktok",
			Name:         "TikTok",
			BaselineROAS: 2.25,
			RecentROAS:   1.5,
			DropPercent:  1.0 / 3.0,
			SpendTrend:   "flat",
			Severity:     domain.SeverityHigh,
		}},
		LTVDrift: domain.LTVDriftSignal{
			Detected:       true,
			BaselineLTV90D: 128,
			RecentLTV90D:   113.5,
			DriftPercent:   14.5 / 128,
			Severity:       domain.SeverityLow,
			Direction:      domain.DriftStabilizing,
		},
		RiskLevel: domain.RiskYellow,
	}
}

func TestGenerate_ScenarioProducesRankedActions(t *testing.T) {
	engine := New(domain.DefaultThresholds()).WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	recs := engine.Generate(scenarioSnapshot(), scenarioAssessment())

	if len(recs.Actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(recs.Actions))
	}

	// shift_budget TikTok→Meta: 6000 moved, impact 6000*(3.7-1.9) = 10800.
	shift := recs.Actions[0]
	if shift.ActionType != domain.ActionShiftBudget {
		t.Fatalf("expected shift_budget first, got %s", shift.ActionType)
	}
	if shift.Target.From != "ch_tiktok" || shift.Target.To != "ch_meta" {
		t.Errorf("expected shift ch_tiktok→ch_meta, got %s→%s", shift.Target.From, shift.Target.To)
	}
	if math.Abs(shift.EstimatedImpactUSD-10800) > 1e-6 {
		t.Errorf("expected shift impact 10800, got %f", shift.EstimatedImpactUSD)
	}
	if math.Abs(shift.Amount.Recommended-54000) > 1e-6 {
		t.Errorf("expected recommended spend 54000, got %f", shift.Amount.Recommended)
	}
	// Attribution (loser) and risk (decay) agree on the source channel.
	if shift.Confidence != domain.SeverityHigh || shift.Urgency != domain.SeverityHigh {
		t.Errorf("expected high confidence and urgency, got %s/%s", shift.Confidence, shift.Urgency)
	}

	// increase_budget Meta: +10000, impact 10000*(3.7-2.85) = 8500.
	increase := recs.Actions[1]
	if increase.ActionType != domain.ActionIncreaseBudget {
		t.Fatalf("expected increase_budget second, got %s", increase.ActionType)
	}
	if increase.Target.From != "ch_meta" {
		t.Errorf("expected increase on ch_meta, got %s", increase.Target.From)
	}
	if math.Abs(increase.EstimatedImpactUSD-8500) > 1e-6 {
		t.Errorf("expected increase impact 8500, got %f", increase.EstimatedImpactUSD)
	}

	// pause_creative cr_tt_1: impact 2000*0.375*7 = 5250.
	pause := recs.Actions[2]
	if pause.ActionType != domain.ActionPauseCreative {
		t.Fatalf("expected pause_creative third, got %s", pause.ActionType)
	}
	if math.Abs(pause.EstimatedImpactUSD-5250) > 1e-6 {
		t.Errorf("expected pause impact 5250, got %f", pause.EstimatedImpactUSD)
	}
	if pause.Amount.ChangePercent != -100 {
		t.Errorf("expected -100%% change, got %f", pause.Amount.ChangePercent)
	}
	// 0.9375 > 0.80 → urgent.
	if pause.Urgency != domain.SeverityHigh {
		t.Errorf("expected high urgency, got %s", pause.Urgency)
	}

	for i, a := range recs.Actions {
		if a.Priority != i+1 {
			t.Errorf("action %d: expected priority %d, got %d", i, i+1, a.Priority)
		}
	}
	if math.Abs(recs.TotalPotentialUplift-24550) > 1e-6 {
		t.Errorf("expected total uplift 24550, got %f", recs.TotalPotentialUplift)
	}
}

func TestShiftBudget_DecayingNeutralChannelIsASource(t *testing.T) {
	cfg := domain.DefaultThresholds()
	snap := scenarioSnapshot()
	assessment := &domain.RiskAssessment{
		ROIDecayChannels: []domain.ROIDecaySignal{{
			ChannelID: "ch_google", Severity: domain.SeverityMedium, SpendTrend: "flat",
		}},
	}

	actions := shiftBudget(snap, assessment, cfg)

	var fromGoogle *domain.Action
	for i := range actions {
		if actions[i].Target.From == "ch_google" {
			fromGoogle = &actions[i]
		}
	}
	if fromGoogle == nil {
		t.Fatal("expected a shift sourced from the decaying neutral channel")
	}
	// impact = 8000*(3.7-2.5) = 9600
	if math.Abs(fromGoogle.EstimatedImpactUSD-9600) > 1e-6 {
		t.Errorf("expected impact 9600, got %f", fromGoogle.EstimatedImpactUSD)
	}
	// Risk flags it but attribution does not call it a loser.
	if fromGoogle.Confidence != domain.SeverityMedium {
		t.Errorf("expected medium confidence, got %s", fromGoogle.Confidence)
	}
}

func TestShiftBudget_NoWinnerMeansNoShift(t *testing.T) {
	cfg := domain.DefaultThresholds()
	snap := &domain.AttributionSnapshot{
		Totals: domain.AttributionTotals{ROAS: fp(2.0)},
		Channels: []domain.ChannelAttribution{
			{ChannelID: "chA", Spend: 1000, ROAS: fp(2.1), Status: domain.ChannelNeutral},
			{ChannelID: "chB", Spend: 1000, ROAS: fp(1.5), Status: domain.ChannelLoser},
		},
	}

	actions := shiftBudget(snap, &domain.RiskAssessment{}, cfg)
	if len(actions) != 0 {
		t.Errorf("expected no shift without a winner, got %d actions", len(actions))
	}
}

func TestShiftBudget_WinnerAtCapacityExcluded(t *testing.T) {
	cfg := domain.DefaultThresholds()
	snap := &domain.AttributionSnapshot{
		Totals: domain.AttributionTotals{ROAS: fp(2.0)},
		Channels: []domain.ChannelAttribution{
			{ChannelID: "chA", Spend: cfg.ChannelCapacityUSD, ROAS: fp(4.0), Status: domain.ChannelWinner},
			{ChannelID: "chB", Spend: 1000, ROAS: fp(1.0), Status: domain.ChannelLoser},
		},
	}

	actions := shiftBudget(snap, &domain.RiskAssessment{}, cfg)
	if len(actions) != 0 {
		t.Errorf("expected no shift into a channel at capacity, got %d actions", len(actions))
	}
}

func TestShiftBudget_NegativeImpactSkipped(t *testing.T) {
	cfg := domain.DefaultThresholds()
	// The decaying channel still out-earns the winner: moving budget there
	// would lose money.
	snap := &domain.AttributionSnapshot{
		Totals: domain.AttributionTotals{ROAS: fp(2.0)},
		Channels: []domain.ChannelAttribution{
			{ChannelID: "chA", Spend: 1000, ROAS: fp(2.5), Status: domain.ChannelWinner},
			{ChannelID: "chB", Spend: 1000, ROAS: fp(4.0), Status: domain.ChannelNeutral},
		},
	}
	assessment := &domain.RiskAssessment{
		ROIDecayChannels: []domain.ROIDecaySignal{{ChannelID: "chB", Severity: domain.SeverityLow}},
	}

	actions := shiftBudget(snap, assessment, cfg)
	if len(actions) != 0 {
		t.Errorf("expected negative-impact shift skipped, got %d actions", len(actions))
	}
}

func TestPauseCreative_ProbabilityBands(t *testing.T) {
	cfg := domain.DefaultThresholds()

	signalWith := func(prob float64) *domain.RiskAssessment {
		return &domain.RiskAssessment{CreativeFatigue: []domain.CreativeFatigueSignal{{
			CreativeID: "cr1", FatigueProb7D: prob, PredictedDrop: 0.2, RecentDailySpend: 100,
			Severity: domain.SeverityMedium,
		}}}
	}

	if got := pauseCreative(signalWith(0.55), cfg); len(got) != 0 {
		t.Errorf("expected no pause below threshold, got %d actions", len(got))
	}
	mid := pauseCreative(signalWith(0.70), cfg)
	if len(mid) != 1 || mid[0].Urgency != domain.SeverityMedium {
		t.Fatalf("expected one medium-urgency pause, got %+v", mid)
	}
	urgent := pauseCreative(signalWith(0.90), cfg)
	if len(urgent) != 1 || urgent[0].Urgency != domain.SeverityHigh {
		t.Fatalf("expected one high-urgency pause, got %+v", urgent)
	}
}

func TestIncreaseBudget_DecayingChannelExcluded(t *testing.T) {
	cfg := domain.DefaultThresholds()
	snap := &domain.AttributionSnapshot{
		Totals: domain.AttributionTotals{ROAS: fp(2.0)},
		Channels: []domain.ChannelAttribution{
			// Both above the 2.4 bar; only the undamaged one qualifies.
			{ChannelID: "chA", Spend: 1000, ROAS: fp(3.0), Status: domain.ChannelWinner},
			{ChannelID: "chB", Spend: 1000, ROAS: fp(2.8), Status: domain.ChannelWinner},
		},
	}
	assessment := &domain.RiskAssessment{
		ROIDecayChannels: []domain.ROIDecaySignal{{ChannelID: "chB", Severity: domain.SeverityMedium}},
	}

	actions := increaseBudget(snap, assessment, cfg)
	if len(actions) != 1 {
		t.Fatalf("expected 1 increase, got %d", len(actions))
	}
	if actions[0].Target.From != "chA" {
		t.Errorf("expected increase on chA, got %s", actions[0].Target.From)
	}
	// impact = 100*(3.0-2.0) = 100
	if math.Abs(actions[0].EstimatedImpactUSD-100) > 1e-9 {
		t.Errorf("expected impact 100, got %f", actions[0].EstimatedImpactUSD)
	}
}

func TestFocusRetention_OnlyOnSevereDrift(t *testing.T) {
	cfg := domain.DefaultThresholds()
	snap := &domain.AttributionSnapshot{
		Totals: domain.AttributionTotals{LTVAdjustedRevenue: 100_000},
	}

	low := &domain.RiskAssessment{LTVDrift: domain.LTVDriftSignal{
		Detected: true, DriftPercent: 0.12, Severity: domain.SeverityLow,
	}}
	if got := focusRetention(snap, low, cfg); len(got) != 0 {
		t.Errorf("expected no retention action on low drift, got %d", len(got))
	}

	high := &domain.RiskAssessment{LTVDrift: domain.LTVDriftSignal{
		Detected: true, DriftPercent: 0.35, Severity: domain.SeverityHigh,
		Direction: domain.DriftAccelerating,
	}}
	actions := focusRetention(snap, high, cfg)
	if len(actions) != 1 {
		t.Fatalf("expected 1 retention action, got %d", len(actions))
	}
	// impact = 0.35 * 100000 = 35000
	if math.Abs(actions[0].EstimatedImpactUSD-35000) > 1e-9 {
		t.Errorf("expected impact 35000, got %f", actions[0].EstimatedImpactUSD)
	}
	if actions[0].Target.From != "customer_base" {
		t.Errorf("expected customer_base target, got %s", actions[0].Target.From)
	}
}

func TestRankAndSelect_CapsActionsAndIncreases(t *testing.T) {
	cfg := domain.DefaultThresholds()

	candidates := []domain.Action{
		{ActionType: domain.ActionIncreaseBudget, EstimatedImpactUSD: 9000, Severity: domain.SeverityLow, Confidence: domain.SeverityHigh, Urgency: domain.SeverityLow},
		{ActionType: domain.ActionIncreaseBudget, EstimatedImpactUSD: 8000, Severity: domain.SeverityLow, Confidence: domain.SeverityHigh, Urgency: domain.SeverityLow},
		{ActionType: domain.ActionShiftBudget, EstimatedImpactUSD: 7000, Severity: domain.SeverityHigh, Confidence: domain.SeverityHigh, Urgency: domain.SeverityHigh},
		{ActionType: domain.ActionPauseCreative, EstimatedImpactUSD: 500, Severity: domain.SeverityMedium, Confidence: domain.SeverityMedium, Urgency: domain.SeverityMedium},
		{ActionType: domain.ActionFocusRetention, EstimatedImpactUSD: 200, Severity: domain.SeverityHigh, Confidence: domain.SeverityMedium, Urgency: domain.SeverityHigh},
	}

	selected := rankAndSelect(candidates, cfg)

	if len(selected) != cfg.MaxActions {
		t.Fatalf("expected %d actions, got %d", cfg.MaxActions, len(selected))
	}
	increases := 0
	for _, a := range selected {
		if a.ActionType == domain.ActionIncreaseBudget {
			increases++
		}
	}
	if increases != 1 {
		t.Errorf("expected exactly 1 increase_budget, got %d", increases)
	}
	// The second increase is displaced by the next-best non-increase.
	want := []domain.ActionType{domain.ActionIncreaseBudget, domain.ActionShiftBudget, domain.ActionPauseCreative}
	for i, a := range selected {
		if a.ActionType != want[i] {
			t.Errorf("slot %d: expected %s, got %s", i, want[i], a.ActionType)
		}
	}
}

func TestRankAndSelect_TieBreaksByImpactThenGenerator(t *testing.T) {
	cfg := domain.Thresholds{
		ImpactWeight: 0, SeverityWeight: 1, ConfidenceWeight: 0, UrgencyWeight: 0,
		MaxActions: 3, MaxIncreaseCount: 1,
	}

	// Identical scores; impact separates the first pair, generator order
	// the second.
	candidates := []domain.Action{
		{ActionType: domain.ActionPauseCreative, EstimatedImpactUSD: 100, Severity: domain.SeverityHigh},
		{ActionType: domain.ActionShiftBudget, EstimatedImpactUSD: 300, Severity: domain.SeverityHigh},
		{ActionType: domain.ActionFocusRetention, EstimatedImpactUSD: 100, Severity: domain.SeverityHigh},
	}

	selected := rankAndSelect(candidates, cfg)
	want := []domain.ActionType{domain.ActionShiftBudget, domain.ActionPauseCreative, domain.ActionFocusRetention}
	for i, a := range selected {
		if a.ActionType != want[i] {
			t.Errorf("slot %d: expected %s, got %s", i, want[i], a.ActionType)
		}
	}
}

func TestGenerate_EmptyInputsYieldNoActions(t *testing.T) {
	engine := New(domain.DefaultThresholds())

	snap := &domain.AttributionSnapshot{Totals: domain.AttributionTotals{ROAS: fp(2.0)}}
	recs := engine.Generate(snap, &domain.RiskAssessment{})

	if len(recs.Actions) != 0 {
		t.Errorf("expected no actions, got %d", len(recs.Actions))
	}
	if recs.TotalPotentialUplift != 0 {
		t.Errorf("expected zero uplift, got %f", recs.TotalPotentialUplift)
	}
}
