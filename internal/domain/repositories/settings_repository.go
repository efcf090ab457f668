package repositories

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// SettingsRepository reads the mutable global settings row.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*entities.Settings, error)
}

// ChannelRepository resolves administrative notification channels.
type ChannelRepository interface {
	// GetPayoutChannel returns the latest active PAYOUTS channel or
	// errs.ErrNotFound.
	GetPayoutChannel(ctx context.Context) (*entities.Channel, error)
}
