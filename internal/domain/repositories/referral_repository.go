package repositories

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// ReferralRepository stores referrer/referred pairs.
type ReferralRepository interface {
	// GetOrCreateReferral returns the row for the ordered pair,
	// inserting a PENDING one if absent. The returned row is locked
	// for update; must run inside a transaction.
	GetOrCreateReferral(ctx context.Context, referrerID, referredID int64) (*entities.Referral, error)

	// UpdateReferral persists status and bonus of an existing row.
	UpdateReferral(ctx context.Context, id int64, status entities.ReferralStatus, bonus int64) error

	GetStats(ctx context.Context, referrerID int64) (*entities.ReferralStats, error)

	// ListAllReferrals streams every row for CSV export.
	ListAllReferrals(ctx context.Context) ([]*entities.Referral, error)
}
