package response

import "github.com/ovozbot/finance-service/internal/domain/entities"

type GetReferralConfig struct {
	RewardSum   int64  `json:"reward_sum"`
	BotUsername string `json:"bot_username"`
}

func NewGetReferralConfig(e *entities.Settings) GetReferralConfig {
	return GetReferralConfig{
		RewardSum:   e.ReferralRewardSum,
		BotUsername: e.BotUsername,
	}
}
