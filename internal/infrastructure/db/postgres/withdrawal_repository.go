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

const withdrawalColumns = `id, user_id, amount_sum, method, destination_masked,
		status, admin_id, admin_note, created_at, updated_at`

type WithdrawalRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewWithdrawalRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*WithdrawalRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &WithdrawalRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.WithdrawalRepository = (*WithdrawalRepository)(nil)

// CreateWithdrawal inserts a PENDING row. The partial unique index over
// open statuses turns a concurrent second request into
// errs.ErrOpenWithdrawal.
func (r *WithdrawalRepository) CreateWithdrawal(ctx context.Context, w *entities.Withdrawal) (int64, error) {
	const query = `
		INSERT INTO withdrawals (user_id, amount_sum, method, destination_masked, status)
		VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at;
	`

	err := r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowContext(ctx, query, w.UserID, w.Amount, w.Method, w.DestinationMasked, w.Status).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return 0, errs.ErrOpenWithdrawal
			case pgerrcode.ForeignKeyViolation:
				// No users row to reference.
				return 0, errs.ErrNotFound
			}
		}
		return 0, err
	}

	return w.ID, nil
}

func (r *WithdrawalRepository) GetWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	const query = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE id = $1;
	`

	return r.scanWithdrawal(r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetWithdrawalForUpdate locks the withdrawal row so a state check and
// the subsequent write are atomic against concurrent transitions.
func (r *WithdrawalRepository) GetWithdrawalForUpdate(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	const query = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE id = $1
			FOR UPDATE;
	`

	return r.scanWithdrawal(r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *WithdrawalRepository) UpdateWithdrawal(ctx context.Context, w *entities.Withdrawal) error {
	const query = `
		UPDATE withdrawals SET
			status = $1,
			admin_id = $2,
			admin_note = $3,
			updated_at = now()
		WHERE id = $4
			RETURNING updated_at;
	`

	var adminID sql.NullInt64
	if w.AdminID != nil {
		adminID = sql.NullInt64{Int64: *w.AdminID, Valid: true}
	}

	err := r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowContext(ctx, query, w.Status, adminID, w.AdminNote, w.ID).
		Scan(&w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}

	return nil
}

func (r *WithdrawalRepository) HasOpenWithdrawal(ctx context.Context, userID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM withdrawals
			WHERE user_id = $1 AND status IN ('PENDING', 'APPROVED')
		);
	`

	var open bool

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&open)
	if err != nil {
		return false, err
	}

	return open, nil
}

func (r *WithdrawalRepository) ListWithdrawals(ctx context.Context, userID int64) ([]*entities.Withdrawal, error) {
	const query = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return r.scanWithdrawals(rows)
}

func (r *WithdrawalRepository) ListAllWithdrawals(ctx context.Context) ([]*entities.Withdrawal, error) {
	const query = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		ORDER BY id;
	`

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return r.scanWithdrawals(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WithdrawalRepository) scanWithdrawal(row rowScanner) (*entities.Withdrawal, error) {
	w := new(entities.Withdrawal)

	var (
		adminID   sql.NullInt64
		adminNote sql.NullString
	)

	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Amount,
		&w.Method,
		&w.DestinationMasked,
		&w.Status,
		&adminID,
		&adminNote,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	if adminID.Valid {
		w.AdminID = &adminID.Int64
	}
	w.AdminNote = adminNote.String

	return w, nil
}

func (r *WithdrawalRepository) scanWithdrawals(rows *sql.Rows) ([]*entities.Withdrawal, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Errorf("close rows: %s", err)
		}
	}()

	withdrawals := make([]*entities.Withdrawal, 0)

	for rows.Next() {
		w, err := r.scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return withdrawals, nil
}
