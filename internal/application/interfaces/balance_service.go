package interfaces

import (
	"context"

	"github.com/ovozbot/finance-service/internal/application/params"
	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// BalanceService owns every mutation of an account's balance. Nothing
// else in the system writes balance_sum.
type BalanceService interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	Credit(ctx context.Context, p *params.Credit) (int64, error)
	Debit(ctx context.Context, p *params.Debit) (int64, error)
	Adjust(ctx context.Context, p *params.Adjust) (int64, error)
	ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error)
	Reconcile(ctx context.Context, userID int64) (*entities.Reconciliation, error)
}
