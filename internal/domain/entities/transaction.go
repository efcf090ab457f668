package entities

import "time"

type TransactionType string

const (
	REWARD     TransactionType = "REWARD"
	REFERRAL   TransactionType = "REFERRAL"
	WITHDRAWAL TransactionType = "WITHDRAWAL"
	ADJUSTMENT TransactionType = "ADJUSTMENT"
	PENALTY    TransactionType = "PENALTY"
)

// ValidForCredit reports whether the type may appear on a positive entry.
func (t TransactionType) ValidForCredit() bool {
	switch t {
	case REWARD, REFERRAL, ADJUSTMENT:
		return true
	}
	return false
}

// ValidForDebit reports whether the type may appear on a negative entry.
func (t TransactionType) ValidForDebit() bool {
	switch t {
	case WITHDRAWAL, PENALTY, ADJUSTMENT:
		return true
	}
	return false
}

// Transaction is one append-only ledger row. Amount is signed: positive
// for credits, negative for holds and penalties. Rows are never updated
// or deleted; the signed sum per user must equal the account balance.
type Transaction struct {
	ID        int64
	UserID    int64
	Type      TransactionType
	Amount    int64
	RefID     *int64
	CreatedAt time.Time
}
