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

type AccountRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewAccountRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*AccountRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &AccountRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) GetAccount(ctx context.Context, userID int64) (*entities.Account, error) {
	const query = `
		SELECT user_id, balance_sum, created_at
		FROM users
		WHERE user_id = $1;
	`

	account := new(entities.Account)

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	return account, nil
}

// GetAccountForUpdate locks the users row until the surrounding
// transaction commits. Other accounts stay untouched.
func (r *AccountRepository) GetAccountForUpdate(ctx context.Context, userID int64) (*entities.Account, error) {
	const query = `
		SELECT user_id, balance_sum, created_at
		FROM users
		WHERE user_id = $1
			FOR UPDATE;
	`

	account := new(entities.Account)

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) ApplyBalanceDelta(ctx context.Context, userID, delta int64) (int64, error) {
	const query = `
		UPDATE users SET
			balance_sum = balance_sum + $1
		WHERE user_id = $2
			RETURNING balance_sum;
	`

	var balance int64

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, delta, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}

	return balance, nil
}

func (r *AccountRepository) SaveTransaction(ctx context.Context, t *entities.Transaction) (int64, error) {
	const query = `
		INSERT INTO transactions (user_id, type, amount_sum, ref_id)
		VALUES ($1, $2, $3, $4)
			RETURNING id;
	`

	var refID sql.NullInt64
	if t.RefID != nil {
		refID = sql.NullInt64{Int64: *t.RefID, Valid: true}
	}

	var id int64

	err := r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowContext(ctx, query, t.UserID, t.Type, t.Amount, refID).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *AccountRepository) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error) {
	const query = `
		SELECT id, user_id, type, amount_sum, ref_id, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3;
	`

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return r.scanTransactions(rows)
}

func (r *AccountRepository) SumTransactions(ctx context.Context, userID int64) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(amount_sum), 0)
		FROM transactions
		WHERE user_id = $1;
	`

	var sum int64

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&sum)
	if err != nil {
		return 0, err
	}

	return sum, nil
}

func (r *AccountRepository) ListAllTransactions(ctx context.Context) ([]*entities.Transaction, error) {
	const query = `
		SELECT id, user_id, type, amount_sum, ref_id, created_at
		FROM transactions
		ORDER BY id;
	`

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return r.scanTransactions(rows)
}

func (r *AccountRepository) scanTransactions(rows *sql.Rows) ([]*entities.Transaction, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Errorf("close rows: %s", err)
		}
	}()

	transactions := make([]*entities.Transaction, 0)

	for rows.Next() {
		t := new(entities.Transaction)
		var refID sql.NullInt64

		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Type,
			&t.Amount,
			&refID,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if refID.Valid {
			t.RefID = &refID.Int64
		}

		transactions = append(transactions, t)
	}

	// Rows.Err will report the last error encountered by Rows.Scan.
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}
