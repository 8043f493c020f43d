package domain

// ChannelStatus classifies a channel relative to blended ROAS.
type ChannelStatus string

const (
	ChannelWinner  ChannelStatus = "winner"
	ChannelLoser   ChannelStatus = "loser"
	ChannelNeutral ChannelStatus = "neutral"
)

// Channel represents an advertising channel (Meta, Google, TikTok, ...).
// Immutable reference data, owned by the external ingestion layer.
type Channel struct {
	ChannelID string
	Name      string
	Platform  string
}

// Campaign represents an ad campaign within a channel.
// Immutable reference data per reporting window.
type Campaign struct {
	CampaignID string
	Name       string
	ChannelID  string
	Type       string
}

// CreativeStatus is the lifecycle state of a creative.
type CreativeStatus string

const (
	CreativeActive CreativeStatus = "active"
	CreativePaused CreativeStatus = "paused"
)

// Creative represents an individual ad creative. The cumulative spend/ROAS
// snapshot is maintained by external ingestion; the pipeline only reads it.
type Creative struct {
	CreativeID string
	CampaignID string
	ChannelID  string
	Status     CreativeStatus
	Spend      float64
	ROAS       float64
}
