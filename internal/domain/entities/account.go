package entities

import "time"

// Account is the financial facet of a bot user. The identity fields live
// in the same users row but are owned by the bot, not by this service.
type Account struct {
	UserID    int64
	Balance   int64
	CreatedAt time.Time
}

// Reconciliation compares the stored balance with the signed sum of the
// account's ledger rows, both read under the account lock.
type Reconciliation struct {
	UserID    int64 `json:"user_id"`
	Balance   int64 `json:"balance_sum"`
	LedgerSum int64 `json:"ledger_sum"`
}

// Consistent reports whether balance and ledger agree.
func (r *Reconciliation) Consistent() bool {
	return r.Balance == r.LedgerSum
}
