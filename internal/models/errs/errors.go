package errs

import (
	"errors"
	"fmt"
)

// Common sentinel errors. Every business-rule violation maps onto one of
// these so that callers can branch with errors.Is regardless of how much
// context the concrete error carries.
var (
	ErrNotFound           = errors.New("not found")
	ErrDataConflict       = errors.New("data conflict")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrNotEnoughFunds     = errors.New("not enough funds")
	ErrBelowMinimum       = errors.New("amount below minimum")
	ErrOpenWithdrawal     = errors.New("open withdrawal exists")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrSelfReferral       = errors.New("self referral")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Type just for marshalling purpose.
// Should only be used immediately before marshalling.
type JSON struct {
	Error string `json:"error"`
}

// NotEnoughFundsError reports a debit that exceeds the current balance.
// The balance is carried so the caller can display it.
type NotEnoughFundsError struct {
	Balance   int64
	Requested int64
}

func (e *NotEnoughFundsError) Error() string {
	return fmt.Sprintf("not enough funds: balance %d, requested %d", e.Balance, e.Requested)
}

func (e *NotEnoughFundsError) Unwrap() error { return ErrNotEnoughFunds }

// BelowMinimumError reports a withdrawal under the policy floor.
type BelowMinimumError struct {
	Amount  int64
	Minimum int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum withdrawal is %d, got %d", e.Minimum, e.Amount)
}

func (e *BelowMinimumError) Unwrap() error { return ErrBelowMinimum }

// InvalidTransitionError reports a withdrawal lifecycle transition
// attempted from a state that does not permit it.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
