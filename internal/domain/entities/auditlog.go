package entities

import "time"

// Audit log actions written on privileged mutations.
const (
	ActionWithdrawApprove = "WITHDRAW_APPROVE"
	ActionWithdrawReject  = "WITHDRAW_REJECT"
	ActionWithdrawPaid    = "WITHDRAW_PAID"
	ActionBalanceAdjust   = "BALANCE_ADJUST"
)

// AuditEntry is one append-only adminlogs row. Payload is marshalled to
// JSON by the repository; entries are never updated.
type AuditEntry struct {
	ID        int64
	AdminID   int64
	Action    string
	Payload   map[string]any
	CreatedAt time.Time
}
