package repositories

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// WithdrawalRepository stores payout requests.
type WithdrawalRepository interface {
	// CreateWithdrawal inserts a new PENDING row and returns its id.
	// A violation of the single-open-request index surfaces as
	// errs.ErrOpenWithdrawal.
	CreateWithdrawal(ctx context.Context, w *entities.Withdrawal) (int64, error)

	GetWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error)

	// GetWithdrawalForUpdate locks the row so that the status check and
	// the status write of a transition are atomic. Must run inside a
	// transaction.
	GetWithdrawalForUpdate(ctx context.Context, id int64) (*entities.Withdrawal, error)

	// UpdateWithdrawal persists status, admin id and admin note.
	UpdateWithdrawal(ctx context.Context, w *entities.Withdrawal) error

	// HasOpenWithdrawal reports whether the user has a request in
	// PENDING or APPROVED.
	HasOpenWithdrawal(ctx context.Context, userID int64) (bool, error)

	ListWithdrawals(ctx context.Context, userID int64) ([]*entities.Withdrawal, error)

	// ListAllWithdrawals streams every row for CSV export.
	ListAllWithdrawals(ctx context.Context) ([]*entities.Withdrawal, error)
}
