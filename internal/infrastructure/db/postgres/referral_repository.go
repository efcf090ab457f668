package postgres

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

type ReferralRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewReferralRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*ReferralRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &ReferralRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.ReferralRepository = (*ReferralRepository)(nil)

// GetOrCreateReferral inserts the pair row if it does not exist yet and
// returns it locked. The unique constraint on the ordered pair makes
// the insert race-free; concurrent callers serialize on the row lock.
func (r *ReferralRepository) GetOrCreateReferral(ctx context.Context, referrerID, referredID int64) (*entities.Referral, error) {
	const insert = `
		INSERT INTO referrals (referrer_user_id, referred_user_id)
		VALUES ($1, $2)
		ON CONFLICT (referrer_user_id, referred_user_id) DO NOTHING;
	`

	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	if _, err := tr.ExecContext(ctx, insert, referrerID, referredID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			// One of the two users rows does not exist.
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	const query = `
		SELECT id, referrer_user_id, referred_user_id, bonus_sum, status, reason, created_at
		FROM referrals
		WHERE referrer_user_id = $1 AND referred_user_id = $2
			FOR UPDATE;
	`

	ref := new(entities.Referral)
	var reason sql.NullString

	err := tr.QueryRowContext(ctx, query, referrerID, referredID).Scan(
		&ref.ID,
		&ref.ReferrerUserID,
		&ref.ReferredUserID,
		&ref.BonusSum,
		&ref.Status,
		&reason,
		&ref.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	ref.Reason = reason.String

	return ref, nil
}

func (r *ReferralRepository) UpdateReferral(ctx context.Context, id int64, status entities.ReferralStatus, bonus int64) error {
	const query = `
		UPDATE referrals SET
			status = $1,
			bonus_sum = $2
		WHERE id = $3;
	`

	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query, status, bonus, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *ReferralRepository) GetStats(ctx context.Context, referrerID int64) (*entities.ReferralStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(SUM(bonus_sum) FILTER (WHERE status = 'PAID'), 0)
		FROM referrals
		WHERE referrer_user_id = $1;
	`

	stats := new(entities.ReferralStats)

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, referrerID).Scan(
		&stats.InvitedCount,
		&stats.PaidSum,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *ReferralRepository) ListAllReferrals(ctx context.Context) ([]*entities.Referral, error) {
	const query = `
		SELECT id, referrer_user_id, referred_user_id, bonus_sum, status, reason, created_at
		FROM referrals
		ORDER BY id;
	`

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err = rows.Close(); err != nil {
			r.logger.Errorf("close rows: %s", err)
		}
	}()

	referrals := make([]*entities.Referral, 0)

	for rows.Next() {
		ref := new(entities.Referral)
		var reason sql.NullString

		err = rows.Scan(
			&ref.ID,
			&ref.ReferrerUserID,
			&ref.ReferredUserID,
			&ref.BonusSum,
			&ref.Status,
			&reason,
			&ref.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		ref.Reason = reason.String

		referrals = append(referrals, ref)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return referrals, nil
}
