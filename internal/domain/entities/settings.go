package entities

// Settings is the mutable global settings row. The referral reward is
// read at grant time on purpose: changing it affects future grants, not
// already-paid ones.
type Settings struct {
	ReferralRewardSum int64
	BotUsername       string
}
