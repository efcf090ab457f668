package postgres

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

type SettingsRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewSettingsRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*SettingsRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &SettingsRepository{db: db, getter: getter, logger: logger}, nil
}

var (
	_ repositories.SettingsRepository = (*SettingsRepository)(nil)
	_ repositories.ChannelRepository  = (*SettingsRepository)(nil)
)

// GetSettings reads the singleton settings row, creating it with zero
// reward when missing.
func (r *SettingsRepository) GetSettings(ctx context.Context) (*entities.Settings, error) {
	const insert = `
		INSERT INTO settings (key)
		VALUES ('default')
		ON CONFLICT (key) DO NOTHING;
	`

	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	if _, err := tr.ExecContext(ctx, insert); err != nil {
		return nil, err
	}

	const query = `
		SELECT referral_reward_sum
		FROM settings
		WHERE key = 'default';
	`

	settings := new(entities.Settings)

	if err := tr.QueryRowContext(ctx, query).Scan(&settings.ReferralRewardSum); err != nil {
		return nil, err
	}

	return settings, nil
}

// GetPayoutChannel returns the most recently added active payout
// channel.
func (r *SettingsRepository) GetPayoutChannel(ctx context.Context) (*entities.Channel, error) {
	const query = `
		SELECT id, chat_id, type, title, is_active
		FROM channels
		WHERE type = 'PAYOUTS' AND is_active
		ORDER BY id DESC
		LIMIT 1;
	`

	ch := new(entities.Channel)
	var title sql.NullString

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&ch.ID,
		&ch.ChatID,
		&ch.Type,
		&title,
		&ch.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	ch.Title = title.String

	return ch, nil
}
