package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/ovozbot/finance-service/internal/application/interfaces"
	"github.com/ovozbot/finance-service/internal/application/params"
	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/metrics"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

// ReferralService pays the once-per-pair referral bonus. The reward
// amount is read from the settings row at grant time, so changing it
// affects future grants only.
type ReferralService struct {
	referralRepo repositories.ReferralRepository
	settingsRepo repositories.SettingsRepository
	balance      interfaces.BalanceService
	trm          *manager.Manager
	logger       logger.Logger
	botUsername  string
}

func NewReferralService(
	referralRepo repositories.ReferralRepository,
	settingsRepo repositories.SettingsRepository,
	balance interfaces.BalanceService,
	trm *manager.Manager,
	logger logger.Logger,
	config *config.Config,
) (*ReferralService, error) {
	if referralRepo == nil {
		return nil, errors.New("nil dependency: referral repository")
	}
	if settingsRepo == nil {
		return nil, errors.New("nil dependency: settings repository")
	}
	if balance == nil {
		return nil, errors.New("nil dependency: balance service")
	}
	if trm == nil {
		return nil, errors.New("nil dependency: transaction manager")
	}
	if config == nil {
		return nil, errors.New("nil dependency: config")
	}
	return &ReferralService{
		referralRepo: referralRepo,
		settingsRepo: settingsRepo,
		balance:      balance,
		trm:          trm,
		logger:       logger,
		botUsername:  config.Telegram.BotUsername,
	}, nil
}

var _ interfaces.ReferralService = (*ReferralService)(nil)

// Grant issues the bonus for the ordered (referrer, referred) pair.
// Safe to call any number of times: the pair row is unique and locked,
// and a PAID row short-circuits with the previously recorded reward.
func (s *ReferralService) Grant(ctx context.Context, referrerID, referredID int64) (*entities.GrantResult, error) {
	if referrerID == referredID {
		return nil, fmt.Errorf("%w: user %d", errs.ErrSelfReferral, referrerID)
	}

	result := new(entities.GrantResult)
	outcome := "qualified"

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		ref, err := s.referralRepo.GetOrCreateReferral(ctx, referrerID, referredID)
		if err != nil {
			return err
		}

		switch ref.Status {
		case entities.ReferralPaid:
			// Already credited, return the recorded reward.
			result.Paid = true
			result.Reward = ref.BonusSum
			outcome = "paid"
			return nil
		case entities.ReferralRejected:
			// An admin closed this pair; a retry must not revive it.
			outcome = "rejected"
			return nil
		}

		settings, err := s.settingsRepo.GetSettings(ctx)
		if err != nil {
			return err
		}

		if settings.ReferralRewardSum <= 0 {
			return s.referralRepo.UpdateReferral(ctx, ref.ID, entities.ReferralQualified, 0)
		}

		if _, err = s.balance.Credit(ctx, &params.Credit{
			UserID: referrerID,
			Amount: settings.ReferralRewardSum,
			Type:   entities.REFERRAL,
			RefID:  &ref.ID,
		}); err != nil {
			return err
		}

		if err = s.referralRepo.UpdateReferral(ctx, ref.ID, entities.ReferralPaid, settings.ReferralRewardSum); err != nil {
			return err
		}

		result.Paid = true
		result.Reward = settings.ReferralRewardSum
		outcome = "paid"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("grant referral %d -> %d: %w", referrerID, referredID, err)
	}

	metrics.ReferralGrantsTotal.WithLabelValues(outcome).Inc()

	return result, nil
}

// Config returns the current referral settings for the bot.
func (s *ReferralService) Config(ctx context.Context) (*entities.Settings, error) {
	settings, err := s.settingsRepo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings.BotUsername = s.botUsername
	return settings, nil
}

func (s *ReferralService) Stats(ctx context.Context, referrerID int64) (*entities.ReferralStats, error) {
	return s.referralRepo.GetStats(ctx, referrerID)
}
