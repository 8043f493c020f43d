package pipeline

import (
	"context"
	"fmt"
	"time"

	"adbrain/internal/domain"
	"adbrain/internal/storage"
)

// FixtureOrgID is the organization used by the synthetic dataset.
const FixtureOrgID = "org_demo"

// FixtureWindow returns the 30-day reporting window the fixtures cover.
func FixtureWindow() domain.Window {
	return domain.Window{
		Start: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC),
	}
}

// fixtureDays is the number of days in the fixture window.
const fixtureDays = 30

// fixtureChannel describes one synthetic channel's daily series. Revenue
// has two plateaus split after splitDay so recent-vs-baseline comparisons
// have a defined direction.
type fixtureChannel struct {
	channel   domain.Channel
	campaign  domain.Campaign
	creative  domain.Creative
	dailySpend float64
	revenueA   float64 // daily revenue, days 1..splitDay
	revenueB   float64 // daily revenue, days splitDay+1..30
	splitDay   int
	cvrA, cvrB float64
	cvrSplit   int // day after which CVR switches to cvrB
	cpa        float64
	frequency  float64
}

// fixtureChannels reproduces the documented demo scenario: Meta a clear
// winner with healthy trend, Google neutral and slightly improving, TikTok
// a loser with decaying ROAS and a fatiguing creative.
// Window totals: spend {Meta 100k, Google 80k, TikTok 60k},
// revenue {Meta 370k, Google 200k, TikTok 114k} → blended ROAS = 2.85,
// so Meta (3.70) is a winner, Google (2.50) neutral, TikTok (1.90) a loser.
func fixtureChannels() []fixtureChannel {
	return []fixtureChannel{
		{
			channel:    domain.Channel{ChannelID: "ch_meta", Name: "Meta", Platform: "meta"},
			campaign:   domain.Campaign{CampaignID: "cmp_meta", Name: "Meta Prospecting", ChannelID: "ch_meta", Type: "prospecting"},
			creative:   domain.Creative{CreativeID: "cr_meta_1", CampaignID: "cmp_meta", ChannelID: "ch_meta", Status: domain.CreativeActive},
			dailySpend: 100000.0 / fixtureDays,
			revenueA:   12000,
			revenueB:   (370000.0 - 16*12000) / 14,
			splitDay:   16,
			cvrA:       0.06, cvrB: 0.06, cvrSplit: fixtureDays,
			cpa:       48,
			frequency: 2.1,
		},
		{
			channel:    domain.Channel{ChannelID: "ch_google", Name: "Google", Platform: "google"},
			campaign:   domain.Campaign{CampaignID: "cmp_google", Name: "Google Search", ChannelID: "ch_google", Type: "search"},
			creative:   domain.Creative{CreativeID: "cr_g_1", CampaignID: "cmp_google", ChannelID: "ch_google", Status: domain.CreativeActive},
			dailySpend: 80000.0 / fixtureDays,
			revenueA:   6500,
			revenueB:   (200000.0 - 16*6500) / 14,
			splitDay:   16,
			cvrA:       0.05, cvrB: 0.05, cvrSplit: fixtureDays,
			cpa:       52,
			frequency: 1.8,
		},
		{
			channel:    domain.Channel{ChannelID: "ch_tiktok", Name: "TikTok", Platform: "tiktok"},
			campaign:   domain.Campaign{CampaignID: "cmp_tiktok", Name: "TikTok Spark", ChannelID: "ch_tiktok", Type: "prospecting"},
			creative:   domain.Creative{CreativeID: "cr_tt_1", CampaignID: "cmp_tiktok", ChannelID: "ch_tiktok", Status: domain.CreativeActive},
			dailySpend: 60000.0 / fixtureDays,
			revenueA:   4500, // 16*4500 + 14*3000 = 114000; recent ROAS drops 33%
			revenueB:   3000,
			splitDay:   16,
			cvrA:       0.08, cvrB: 0.05, cvrSplit: 23, // 37.5% drop in the last 7 days
			cpa:       40,
			frequency: 3.0,
		},
	}
}

// fixtureCohorts returns four monthly cohorts with a softening 90-day LTV
// (128 → 119 → 115 → 112): drift past the 10% flag with shrinking deltas.
func fixtureCohorts() []*domain.Cohort {
	ltv90 := []float64{128, 119, 115, 112}
	months := []string{"2025-01", "2025-02", "2025-03", "2025-04"}
	cohorts := make([]*domain.Cohort, 0, len(months))
	for i, month := range months {
		cohorts = append(cohorts, &domain.Cohort{
			OrgID:         FixtureOrgID,
			Month:         month,
			CustomerCount: 1200 - int64(i)*50,
			LTV30D:        ltv90[i] * 0.45,
			LTV60D:        ltv90[i] * 0.75,
			LTV90D:        ltv90[i],
		})
	}
	return cohorts
}

// LoadFixtures populates the stores with the deterministic demo dataset.
func LoadFixtures(ctx context.Context,
	metricStore storage.DailyMetricStore,
	cohortStore storage.CohortStore,
	channelStore storage.ChannelStore,
	campaignStore storage.CampaignStore,
	creativeStore storage.CreativeStore,
) error {
	window := FixtureWindow()

	var rows []*domain.DailyMetric
	for _, fc := range fixtureChannels() {
		if channelStore != nil {
			if err := channelStore.Insert(ctx, &fc.channel); err != nil {
				return fmt.Errorf("insert channel %s: %w", fc.channel.ChannelID, err)
			}
		}
		if campaignStore != nil {
			if err := campaignStore.Insert(ctx, &fc.campaign); err != nil {
				return fmt.Errorf("insert campaign %s: %w", fc.campaign.CampaignID, err)
			}
		}
		if creativeStore != nil {
			if err := creativeStore.Upsert(ctx, &fc.creative); err != nil {
				return fmt.Errorf("upsert creative %s: %w", fc.creative.CreativeID, err)
			}
		}

		for day := 1; day <= fixtureDays; day++ {
			revenue := fc.revenueA
			if day > fc.splitDay {
				revenue = fc.revenueB
			}
			cvr := fc.cvrA
			if day > fc.cvrSplit {
				cvr = fc.cvrB
			}
			clicks := int64(fc.dailySpend) // ~1 USD CPC keeps volumes plausible
			rows = append(rows, &domain.DailyMetric{
				OrgID:       FixtureOrgID,
				Date:        window.Start.AddDate(0, 0, day-1),
				ChannelID:   fc.channel.ChannelID,
				CampaignID:  fc.campaign.CampaignID,
				CreativeID:  fc.creative.CreativeID,
				Impressions: clicks * 40,
				Clicks:      clicks,
				Spend:       fc.dailySpend,
				Conversions: int64(float64(clicks) * cvr),
				Revenue:     revenue,
				Frequency:   fc.frequency,
				CVR:         cvr,
				CPA:         fc.cpa,
			})
		}
	}
	if err := metricStore.InsertBulk(ctx, rows); err != nil {
		return fmt.Errorf("insert metric rows: %w", err)
	}

	if cohortStore != nil {
		for _, c := range fixtureCohorts() {
			if err := cohortStore.Insert(ctx, c); err != nil {
				return fmt.Errorf("insert cohort %s: %w", c.Month, err)
			}
		}
	}
	return nil
}
