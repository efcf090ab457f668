package params

import "github.com/ovozbot/finance-service/internal/domain/entities"

// Credit adds funds to an account.
type Credit struct {
	UserID int64
	Amount int64
	Type   entities.TransactionType
	RefID  *int64
}

// Debit removes funds from an account.
type Debit struct {
	UserID int64
	Amount int64
	Type   entities.TransactionType
	RefID  *int64
}

// Adjust applies a signed administrative correction. AdminID, when set,
// makes the operation audited.
type Adjust struct {
	UserID  int64
	Amount  int64
	Type    entities.TransactionType
	RefID   *int64
	Reason  string
	AdminID *int64
}
