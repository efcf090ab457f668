package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/ovozbot/finance-service/internal/application/interfaces"
	"github.com/ovozbot/finance-service/internal/application/params"
	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/masking"
	"github.com/ovozbot/finance-service/internal/metrics"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

// WithdrawalService drives a payout request from creation to a terminal
// state. Funds are held at creation: the amount leaves the spendable
// balance immediately, and only a reject puts it back.
type WithdrawalService struct {
	withdrawalRepo repositories.WithdrawalRepository
	auditRepo      repositories.AuditRepository
	balance        interfaces.BalanceService
	notifier       interfaces.Notifier
	trm            *manager.Manager
	logger         logger.Logger
	minWithdraw    int64
}

func NewWithdrawalService(
	withdrawalRepo repositories.WithdrawalRepository,
	auditRepo repositories.AuditRepository,
	balance interfaces.BalanceService,
	notifier interfaces.Notifier,
	trm *manager.Manager,
	logger logger.Logger,
	config *config.Config,
) (*WithdrawalService, error) {
	if withdrawalRepo == nil {
		return nil, errors.New("nil dependency: withdrawal repository")
	}
	if auditRepo == nil {
		return nil, errors.New("nil dependency: audit repository")
	}
	if balance == nil {
		return nil, errors.New("nil dependency: balance service")
	}
	if notifier == nil {
		return nil, errors.New("nil dependency: notifier")
	}
	if trm == nil {
		return nil, errors.New("nil dependency: transaction manager")
	}
	if config == nil {
		return nil, errors.New("nil dependency: config")
	}
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		auditRepo:      auditRepo,
		balance:        balance,
		notifier:       notifier,
		trm:            trm,
		logger:         logger,
		minWithdraw:    config.Finance.MinWithdraw,
	}, nil
}

var _ interfaces.WithdrawalService = (*WithdrawalService)(nil)

// Create opens a PENDING withdrawal and holds the amount. The whole
// mask+insert+debit sequence is one transaction: a failure at any step
// leaves no trace. The open-request rule is double-checked: a fast read
// here, and the partial unique index on open withdrawals as the
// authoritative guard against concurrent creates.
func (s *WithdrawalService) Create(ctx context.Context, p *params.CreateWithdrawal) (*entities.Withdrawal, error) {
	if p.Amount < s.minWithdraw {
		return nil, &errs.BelowMinimumError{Amount: p.Amount, Minimum: s.minWithdraw}
	}

	w := &entities.Withdrawal{
		UserID:            p.UserID,
		Amount:            p.Amount,
		Method:            p.Method,
		DestinationMasked: masking.Mask(p.Method, p.Destination),
		Status:            entities.PENDING,
	}

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		open, err := s.withdrawalRepo.HasOpenWithdrawal(ctx, p.UserID)
		if err != nil {
			return err
		}
		if open {
			return errs.ErrOpenWithdrawal
		}

		id, err := s.withdrawalRepo.CreateWithdrawal(ctx, w)
		if err != nil {
			return err
		}
		w.ID = id

		// Hold: the debit locks the account row, checks sufficiency
		// and appends the WITHDRAWAL ledger entry referencing the new
		// request. Joins the ambient transaction.
		_, err = s.balance.Debit(ctx, &params.Debit{
			UserID: p.UserID,
			Amount: p.Amount,
			Type:   entities.WITHDRAWAL,
			RefID:  &w.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("created").Inc()

	s.notifier.NotifyPayoutChannel(ctx, fmt.Sprintf(
		"New withdrawal #%d: user %d, %d UZS via %s to %s",
		w.ID, w.UserID, w.Amount, w.Method, w.DestinationMasked))

	return w, nil
}

// Cancel lets the requester withdraw a PENDING request before an admin
// touches it. The hold is refunded the same way a reject refunds it.
// Ownership is checked against the locked row; a mismatch reads as not
// found so request IDs are not probeable.
func (s *WithdrawalService) Cancel(ctx context.Context, p *params.Cancel) (*entities.Withdrawal, error) {
	var w *entities.Withdrawal

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.withdrawalRepo.GetWithdrawalForUpdate(ctx, p.WithdrawalID)
		if err != nil {
			return err
		}
		if w.UserID != p.UserID {
			return errs.ErrNotFound
		}

		if w.Status != entities.PENDING || !entities.CanTransition(w.Status, entities.CANCELED) {
			return &errs.InvalidTransitionError{
				From: string(w.Status),
				To:   string(entities.CANCELED),
			}
		}

		w.Status = entities.CANCELED
		if err = s.withdrawalRepo.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}

		_, err = s.balance.Adjust(ctx, &params.Adjust{
			UserID: w.UserID,
			Amount: w.Amount,
			Type:   entities.ADJUSTMENT,
			RefID:  &w.ID,
			Reason: "withdrawal canceled by user",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("canceled").Inc()

	s.notifier.NotifyPayoutChannel(ctx, fmt.Sprintf(
		"Withdrawal #%d canceled by user %d, %d UZS returned.",
		w.ID, w.UserID, w.Amount))

	return w, nil
}

// Approve moves PENDING -> APPROVED. No balance effect: the funds are
// already held.
func (s *WithdrawalService) Approve(ctx context.Context, p *params.Approve) (*entities.Withdrawal, error) {
	var w *entities.Withdrawal

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.transition(ctx, p.WithdrawalID, entities.APPROVED, p.AdminID, "approve", p.Note)
		if err != nil {
			return err
		}

		return s.auditRepo.SaveEntry(ctx, &entities.AuditEntry{
			AdminID: p.AdminID,
			Action:  entities.ActionWithdrawApprove,
			Payload: map[string]any{
				"withdrawal_id": w.ID,
				"user_id":       w.UserID,
				"amount_sum":    w.Amount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("approved").Inc()

	s.notifier.NotifyUser(ctx, w.UserID, fmt.Sprintf(
		"Your withdrawal #%d for %d UZS was approved and will be paid out shortly.",
		w.ID, w.Amount))

	return w, nil
}

// Reject closes the withdrawal and returns the held amount. Refund and
// status write are one transaction, and the row lock taken by the
// transition guarantees two concurrent rejects cannot both refund.
func (s *WithdrawalService) Reject(ctx context.Context, p *params.Reject) (*entities.Withdrawal, error) {
	var w *entities.Withdrawal

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.transition(ctx, p.WithdrawalID, entities.REJECTED, p.AdminID, "reject", p.Reason)
		if err != nil {
			return err
		}

		// Refund the hold.
		if _, err = s.balance.Adjust(ctx, &params.Adjust{
			UserID: w.UserID,
			Amount: w.Amount,
			Type:   entities.ADJUSTMENT,
			RefID:  &w.ID,
			Reason: p.Reason,
		}); err != nil {
			return err
		}

		return s.auditRepo.SaveEntry(ctx, &entities.AuditEntry{
			AdminID: p.AdminID,
			Action:  entities.ActionWithdrawReject,
			Payload: map[string]any{
				"withdrawal_id": w.ID,
				"user_id":       w.UserID,
				"amount_sum":    w.Amount,
				"reason":        p.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("rejected").Inc()

	s.notifier.NotifyUser(ctx, w.UserID, fmt.Sprintf(
		"Your withdrawal #%d for %d UZS was rejected. The amount has been returned to your balance.",
		w.ID, w.Amount))

	return w, nil
}

// MarkPaid finalizes a manually sent payout. The hold becomes permanent;
// no further ledger entry is written.
func (s *WithdrawalService) MarkPaid(ctx context.Context, p *params.MarkPaid) (*entities.Withdrawal, error) {
	var w *entities.Withdrawal

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.transition(ctx, p.WithdrawalID, entities.PAID, p.AdminID, "proof", p.ProofURL)
		if err != nil {
			return err
		}

		if p.Note != "" {
			w.AppendNote("note", p.Note)
			if err = s.withdrawalRepo.UpdateWithdrawal(ctx, w); err != nil {
				return err
			}
		}

		return s.auditRepo.SaveEntry(ctx, &entities.AuditEntry{
			AdminID: p.AdminID,
			Action:  entities.ActionWithdrawPaid,
			Payload: map[string]any{
				"withdrawal_id": w.ID,
				"user_id":       w.UserID,
				"amount_sum":    w.Amount,
				"proof_url":     p.ProofURL,
				"note":          p.Note,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("paid").Inc()

	s.notifier.NotifyUser(ctx, w.UserID, fmt.Sprintf(
		"Your withdrawal #%d for %d UZS has been paid.", w.ID, w.Amount))

	return w, nil
}

// transition locks the withdrawal row, validates the edge against the
// state machine and persists the new status with the tagged admin note.
// Callers run it inside an ambient transaction.
func (s *WithdrawalService) transition(
	ctx context.Context,
	id int64,
	to entities.WithdrawalStatus,
	adminID int64,
	noteTag, noteText string,
) (*entities.Withdrawal, error) {
	w, err := s.withdrawalRepo.GetWithdrawalForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if !entities.CanTransition(w.Status, to) {
		return nil, &errs.InvalidTransitionError{
			From: string(w.Status),
			To:   string(to),
		}
	}

	w.Status = to
	w.AdminID = &adminID
	w.AppendNote(noteTag, noteText)

	if err = s.withdrawalRepo.UpdateWithdrawal(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

func (s *WithdrawalService) HasOpen(ctx context.Context, userID int64) (bool, error) {
	return s.withdrawalRepo.HasOpenWithdrawal(ctx, userID)
}

func (s *WithdrawalService) List(ctx context.Context, userID int64) ([]*entities.Withdrawal, error) {
	return s.withdrawalRepo.ListWithdrawals(ctx, userID)
}
