package entities

import "time"

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "PENDING"
	ReferralQualified ReferralStatus = "QUALIFIED"
	ReferralPaid      ReferralStatus = "PAID"
	ReferralRejected  ReferralStatus = "REJECTED"
)

// Referral records a referrer/referred pair. At most one row may exist
// per ordered pair; creation is an idempotent get-or-create.
type Referral struct {
	ID             int64
	ReferrerUserID int64
	ReferredUserID int64
	BonusSum       int64
	Status         ReferralStatus
	Reason         string
	CreatedAt      time.Time
}

// GrantResult is the outcome of a referral grant call.
type GrantResult struct {
	Paid   bool  `json:"paid"`
	Reward int64 `json:"reward"`
}

// ReferralStats is an aggregate over one referrer for the bot profile
// screen.
type ReferralStats struct {
	InvitedCount int64 `json:"invited_count"`
	PaidSum      int64 `json:"paid_sum"`
}
