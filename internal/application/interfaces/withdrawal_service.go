package interfaces

import (
	"context"

	"github.com/ovozbot/finance-service/internal/application/params"
	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// WithdrawalService governs the payout request lifecycle.
type WithdrawalService interface {
	Create(ctx context.Context, p *params.CreateWithdrawal) (*entities.Withdrawal, error)
	Cancel(ctx context.Context, p *params.Cancel) (*entities.Withdrawal, error)
	Approve(ctx context.Context, p *params.Approve) (*entities.Withdrawal, error)
	Reject(ctx context.Context, p *params.Reject) (*entities.Withdrawal, error)
	MarkPaid(ctx context.Context, p *params.MarkPaid) (*entities.Withdrawal, error)

	// HasOpen is the advisory pre-check for the bot; the authoritative
	// check still happens inside Create.
	HasOpen(ctx context.Context, userID int64) (bool, error)

	List(ctx context.Context, userID int64) ([]*entities.Withdrawal, error)
}
