package entities

import (
	"fmt"
	"time"
)

type WithdrawalStatus string

const (
	PENDING  WithdrawalStatus = "PENDING"
	APPROVED WithdrawalStatus = "APPROVED"
	PAID     WithdrawalStatus = "PAID"
	REJECTED WithdrawalStatus = "REJECTED"
	CANCELED WithdrawalStatus = "CANCELED"
)

// transitions is the single authoritative edge set of the withdrawal
// state machine. PAID, REJECTED and CANCELED have no outgoing edges.
// PENDING -> CANCELED is driven by the bot side when a user withdraws
// the request before an admin touches it.
var transitions = map[WithdrawalStatus]map[WithdrawalStatus]bool{
	PENDING: {
		APPROVED: true,
		PAID:     true,
		REJECTED: true,
		CANCELED: true,
	},
	APPROVED: {
		PAID:     true,
		REJECTED: true,
	},
}

// CanTransition reports whether the edge from -> to exists.
// All mutating operations validate through this table, never ad hoc.
func CanTransition(from, to WithdrawalStatus) bool {
	return transitions[from][to]
}

// Open reports whether the withdrawal still blocks a new request.
func (s WithdrawalStatus) Open() bool {
	return s == PENDING || s == APPROVED
}

// Terminal reports whether the status has no outgoing transitions.
func (s WithdrawalStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type WithdrawalMethod string

const (
	CARD  WithdrawalMethod = "CARD"
	CLICK WithdrawalMethod = "CLICK"
	PAYME WithdrawalMethod = "PAYME"
	OTHER WithdrawalMethod = "OTHER"
)

// ParseWithdrawalMethod validates a payout method coming off the wire.
func ParseWithdrawalMethod(s string) (WithdrawalMethod, error) {
	switch m := WithdrawalMethod(s); m {
	case CARD, CLICK, PAYME, OTHER:
		return m, nil
	}
	return "", fmt.Errorf("unknown withdrawal method %q", s)
}

// Withdrawal is a payout request. DestinationMasked is the only stored
// form of the destination; the raw value is discarded at creation.
type Withdrawal struct {
	ID                int64
	UserID            int64
	Amount            int64
	Method            WithdrawalMethod
	DestinationMasked string
	Status            WithdrawalStatus
	AdminID           *int64
	AdminNote         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AppendNote accumulates tagged admin remarks, one per line, e.g.
// "[reject] fraud". Empty remarks are dropped.
func (w *Withdrawal) AppendNote(tag, text string) {
	if text == "" {
		return
	}
	line := fmt.Sprintf("[%s] %s", tag, text)
	if w.AdminNote == "" {
		w.AdminNote = line
		return
	}
	w.AdminNote += "\n" + line
}
