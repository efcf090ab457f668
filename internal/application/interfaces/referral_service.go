package interfaces

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// ReferralService issues once-per-pair referral bonuses.
type ReferralService interface {
	Grant(ctx context.Context, referrerID, referredID int64) (*entities.GrantResult, error)
	Config(ctx context.Context) (*entities.Settings, error)
	Stats(ctx context.Context, referrerID int64) (*entities.ReferralStats, error)
}
