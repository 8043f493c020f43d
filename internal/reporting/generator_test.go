package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
	"adbrain/internal/storage/memory"
)

func fr(v float64) *float64 { return &v }

func testState() *domain.BrainState {
	gen := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	return &domain.BrainState{
		OrgID: "org_demo",
		Window: domain.Window{
			Start: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC),
		},
		RunID: "abc123",
		Memory: &domain.AttributionSnapshot{
			Totals: domain.AttributionTotals{
				Spend:              240000,
				Revenue:            684000,
				ROAS:               fr(2.85),
				LTVAdjustedRevenue: 598500,
				LTVROAS:            fr(2.49375),
			},
			Channels: []domain.ChannelAttribution{
				{ChannelID: "ch_meta", Name: "Meta", Spend: 100000, Revenue: 370000, ROAS: fr(3.7), Status: domain.ChannelWinner},
				{ChannelID: "ch_tiktok", Name: "TikTok", Spend: 60000, Revenue: 114000, ROAS: fr(1.9), Status: domain.ChannelLoser},
				{ChannelID: "ch_zero", Name: "Zero", Spend: 0, Revenue: 0, ROAS: nil, Status: domain.ChannelNeutral},
			},
			LTVFactor: 0.875,
			Warnings:  []string{"ltv factor below 1.0"},
			Timestamp: gen,
		},
		Oracle: &domain.RiskAssessment{
			CreativeFatigue: []domain.CreativeFatigueSignal{
				{CreativeID: "cr_tt_1", ChannelID: "ch_tiktok", BaselineCVR: 0.08, RecentCVR: 0.05,
					FatigueProb7D: 0.9375, FatigueProb14D: 1.0, PredictedDrop: 0.375, Severity: domain.SeverityHigh},
			},
			ROIDecayChannels: []domain.ROIDecaySignal{
				{ChannelID: "ch_tiktok", Name: "TikTok", BaselineROAS: 2.25, RecentROAS: 1.5,
					DropPercent: 1.0 / 3.0, SpendTrend: "flat", Severity: domain.SeverityHigh},
			},
			LTVDrift: domain.LTVDriftSignal{
				Detected: true, BaselineLTV90D: 128, RecentLTV90D: 113.5,
				DriftPercent: 14.5 / 128, Severity: domain.SeverityLow, Direction: domain.DriftStabilizing,
			},
			RiskLevel: domain.RiskYellow,
			Timestamp: gen,
		},
		Curiosity: &domain.Recommendations{
			Actions: []domain.Action{
				{
					ActionType: domain.ActionShiftBudget, Priority: 1,
					Target: domain.ActionTarget{From: "ch_tiktok", To: "ch_meta"},
					Amount: domain.ActionAmount{Current: 60000, Recommended: 54000, ChangePercent: -10},
					EstimatedImpactUSD: 10800, Urgency: domain.SeverityHigh,
					Rationale: "Shift 10% of TikTok budget to Meta",
				},
				{
					ActionType: domain.ActionPauseCreative, Priority: 2,
					Target: domain.ActionTarget{From: "cr_tt_1"},
					Amount: domain.ActionAmount{Current: 2000, Recommended: 0, ChangePercent: -100},
					EstimatedImpactUSD: 5250, Urgency: domain.SeverityHigh,
					Rationale: "Pause fatigued creative cr_tt_1",
				},
			},
			TotalPotentialUplift: 16050,
			Timestamp:            gen,
		},
		GeneratedAt: gen,
	}
}

func TestGenerator_Latest(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBrainStateStore()
	state := testState()
	if err := store.Put(ctx, state); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	gen := NewGenerator(store)
	report, err := gen.Latest(ctx, "org_demo")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}

	if report.RunID != "abc123" {
		t.Errorf("RunID = %s, want abc123", report.RunID)
	}
	if report.RiskLevel != "YELLOW" {
		t.Errorf("RiskLevel = %s, want YELLOW", report.RiskLevel)
	}
	if len(report.Channels) != 3 {
		t.Errorf("Channels = %d, want 3", len(report.Channels))
	}
	if len(report.Actions) != 2 {
		t.Errorf("Actions = %d, want 2", len(report.Actions))
	}
	if report.TotalPotentialUplift != 16050 {
		t.Errorf("TotalPotentialUplift = %f, want 16050", report.TotalPotentialUplift)
	}
}

func TestGenerator_LatestUnknownOrg(t *testing.T) {
	gen := NewGenerator(memory.NewBrainStateStore())
	_, err := gen.Latest(context.Background(), "org_missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerator_ForWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBrainStateStore()
	state := testState()
	if err := store.Put(ctx, state); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	gen := NewGenerator(store)
	report, err := gen.ForWindow(ctx, "org_demo", state.Window)
	if err != nil {
		t.Fatalf("ForWindow failed: %v", err)
	}
	if report.WindowStart != state.Window.Start {
		t.Errorf("WindowStart = %v, want %v", report.WindowStart, state.Window.Start)
	}
}

func TestRenderMarkdown_ContainsSections(t *testing.T) {
	report := FromState(testState())
	md := RenderMarkdown(report)

	sections := []string{
		"# Brain Report: org_demo",
		"## Attribution",
		"### Channels",
		"## Risk: YELLOW",
		"### Creative Fatigue",
		"### ROI Decay",
		"### LTV Drift",
		"## Recommendations",
	}
	for _, s := range sections {
		if !strings.Contains(md, s) {
			t.Errorf("markdown missing section %q", s)
		}
	}

	// Zero-spend channel renders without a ROAS value.
	if !strings.Contains(md, "| Zero | 0.00 | 0.00 | n/a | n/a | neutral |") {
		t.Errorf("zero-spend channel row not rendered as expected:\n%s", md)
	}

	if !strings.Contains(md, "Total potential uplift: 16050.00 USD") {
		t.Errorf("uplift summary missing")
	}
}

func TestRenderMarkdown_EmptySections(t *testing.T) {
	state := testState()
	state.Oracle.CreativeFatigue = nil
	state.Oracle.ROIDecayChannels = nil
	state.Oracle.LTVDrift = domain.LTVDriftSignal{InsufficientData: true}
	state.Curiosity.Actions = nil

	md := RenderMarkdown(FromState(state))

	if !strings.Contains(md, "No fatigued creatives detected.") {
		t.Errorf("missing empty fatigue message")
	}
	if !strings.Contains(md, "No decaying channels detected.") {
		t.Errorf("missing empty decay message")
	}
	if !strings.Contains(md, "Insufficient cohort history") {
		t.Errorf("missing insufficient drift message")
	}
	if !strings.Contains(md, "No actions recommended.") {
		t.Errorf("missing empty actions message")
	}
}

func TestRenderActionsCSV(t *testing.T) {
	report := FromState(testState())
	csv := RenderActionsCSV(report.Actions)

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "priority,action_type,") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,shift_budget,ch_tiktok,ch_meta,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "pause_creative,cr_tt_1,,") {
		t.Errorf("unexpected second row: %s", lines[2])
	}
}

func TestRenderChannelsCSV(t *testing.T) {
	report := FromState(testState())
	csv := RenderChannelsCSV(report.Channels)

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "ch_meta,Meta,100000.00,370000.00,3.700000,") {
		t.Errorf("unexpected meta row: %s", lines[1])
	}
	// Nil ratios render as empty fields.
	if !strings.Contains(lines[3], "ch_zero,Zero,0.00,0.00,,,neutral") {
		t.Errorf("unexpected zero row: %s", lines[3])
	}
}
