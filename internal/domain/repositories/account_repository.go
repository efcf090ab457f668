package repositories

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// AccountRepository is the ledger store for one account: the balance row
// plus its append-only transaction history.
type AccountRepository interface {
	GetAccount(ctx context.Context, userID int64) (*entities.Account, error)

	// GetAccountForUpdate takes an exclusive row lock on the account.
	// Must run inside a transaction; the lock is held until commit.
	GetAccountForUpdate(ctx context.Context, userID int64) (*entities.Account, error)

	// ApplyBalanceDelta adds delta (signed) to the balance and returns
	// the new value. Callers must hold the account lock.
	ApplyBalanceDelta(ctx context.Context, userID, delta int64) (int64, error)

	// SaveTransaction appends one ledger row and returns its id.
	SaveTransaction(ctx context.Context, t *entities.Transaction) (int64, error)

	ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error)

	// SumTransactions returns the signed sum of all ledger rows of the
	// account, used by reconciliation.
	SumTransactions(ctx context.Context, userID int64) (int64, error)

	// ListAllTransactions streams the whole ledger for CSV export.
	ListAllTransactions(ctx context.Context) ([]*entities.Transaction, error)
}
