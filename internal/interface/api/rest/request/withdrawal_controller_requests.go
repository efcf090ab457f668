package request

// CreateWithdrawal defines parameters for opening a payout request.
// Destination arrives raw and is masked before it is stored.
type CreateWithdrawal struct {
	UserID      int64  `json:"user_id"`
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
}

// CancelWithdrawal defines parameters for canceling a pending
// withdrawal. UserID must match the request owner.
type CancelWithdrawal struct {
	UserID int64 `json:"user_id"`
}

// Approve defines parameters for approving a withdrawal.
type Approve struct {
	Note string `json:"note,omitempty"`
}

// Reject defines parameters for rejecting a withdrawal.
type Reject struct {
	Reason string `json:"reason"`
}

// MarkPaid defines parameters for finalizing a paid withdrawal.
type MarkPaid struct {
	ProofURL string `json:"proof_url,omitempty"`
	Note     string `json:"note,omitempty"`
}
