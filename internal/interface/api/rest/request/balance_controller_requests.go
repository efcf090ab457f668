package request

// Credit defines parameters for crediting an account.
type Credit struct {
	UserID int64  `json:"user_id"`
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
	RefID  *int64 `json:"ref_id,omitempty"`
}

// Debit defines parameters for debiting an account.
type Debit struct {
	UserID int64  `json:"user_id"`
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
	RefID  *int64 `json:"ref_id,omitempty"`
}

// Adjust defines parameters for an administrative correction.
// Amount is signed.
type Adjust struct {
	UserID int64  `json:"user_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
	RefID  *int64 `json:"ref_id,omitempty"`
}
