package params

import "github.com/ovozbot/finance-service/internal/domain/entities"

// CreateWithdrawal opens a new payout request. Destination is the raw
// payout target; it is masked inside the service and never persisted.
type CreateWithdrawal struct {
	UserID      int64
	Method      entities.WithdrawalMethod
	Destination string
	Amount      int64
}

// Cancel closes a PENDING withdrawal on the requester's behalf and
// refunds the hold. UserID must match the withdrawal owner.
type Cancel struct {
	WithdrawalID int64
	UserID       int64
}

// Approve moves a withdrawal PENDING -> APPROVED.
type Approve struct {
	WithdrawalID int64
	AdminID      int64
	Note         string
}

// Reject refunds the hold and closes the withdrawal as REJECTED.
type Reject struct {
	WithdrawalID int64
	AdminID      int64
	Reason       string
}

// MarkPaid finalizes a manually sent payout.
type MarkPaid struct {
	WithdrawalID int64
	AdminID      int64
	ProofURL     string
	Note         string
}
