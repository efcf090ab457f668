package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/ovozbot/finance-service/internal/application/interfaces"
	"github.com/ovozbot/finance-service/internal/application/params"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/metrics"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

// BalanceService is the only writer of balance_sum. Every mutation runs
// in one transaction that locks the account row for the read-check-write
// sequence and appends the matching ledger entry, so balance and history
// cannot diverge.
type BalanceService struct {
	accountRepo repositories.AccountRepository
	auditRepo   repositories.AuditRepository
	trm         *manager.Manager
	logger      logger.Logger
}

func NewBalanceService(
	accountRepo repositories.AccountRepository,
	auditRepo repositories.AuditRepository,
	trm *manager.Manager,
	logger logger.Logger,
) (*BalanceService, error) {
	if accountRepo == nil {
		return nil, errors.New("nil dependency: account repository")
	}
	if auditRepo == nil {
		return nil, errors.New("nil dependency: audit repository")
	}
	if trm == nil {
		return nil, errors.New("nil dependency: transaction manager")
	}
	return &BalanceService{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		trm:         trm,
		logger:      logger,
	}, nil
}

var _ interfaces.BalanceService = (*BalanceService)(nil)

func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	account, err := s.accountRepo.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Credit appends a positive ledger entry and increments the balance.
func (s *BalanceService) Credit(ctx context.Context, p *params.Credit) (int64, error) {
	if p.Amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", errs.ErrInvalidRequest)
	}
	if !p.Type.ValidForCredit() {
		return 0, fmt.Errorf("%w: type %s is not allowed for credit", errs.ErrInvalidRequest, p.Type)
	}

	var newBalance int64

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		if _, err := s.accountRepo.GetAccountForUpdate(ctx, p.UserID); err != nil {
			return err
		}

		t := &entities.Transaction{
			UserID: p.UserID,
			Type:   p.Type,
			Amount: p.Amount,
			RefID:  p.RefID,
		}
		if _, err := s.accountRepo.SaveTransaction(ctx, t); err != nil {
			return err
		}

		balance, err := s.accountRepo.ApplyBalanceDelta(ctx, p.UserID, p.Amount)
		if err != nil {
			return err
		}
		newBalance = balance

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("credit user %d: %w", p.UserID, err)
	}

	metrics.TransactionsTotal.WithLabelValues(string(p.Type)).Inc()

	return newBalance, nil
}

// Debit appends a negative ledger entry and decrements the balance.
// Fails with errs.ErrNotEnoughFunds when the locked balance is lower
// than the requested amount.
func (s *BalanceService) Debit(ctx context.Context, p *params.Debit) (int64, error) {
	if p.Amount <= 0 {
		return 0, fmt.Errorf("%w: debit amount must be positive", errs.ErrInvalidRequest)
	}
	if !p.Type.ValidForDebit() {
		return 0, fmt.Errorf("%w: type %s is not allowed for debit", errs.ErrInvalidRequest, p.Type)
	}

	var newBalance int64

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetAccountForUpdate(ctx, p.UserID)
		if err != nil {
			return err
		}

		if account.Balance < p.Amount {
			return &errs.NotEnoughFundsError{
				Balance:   account.Balance,
				Requested: p.Amount,
			}
		}

		t := &entities.Transaction{
			UserID: p.UserID,
			Type:   p.Type,
			Amount: -p.Amount,
			RefID:  p.RefID,
		}
		if _, err = s.accountRepo.SaveTransaction(ctx, t); err != nil {
			return err
		}

		balance, err := s.accountRepo.ApplyBalanceDelta(ctx, p.UserID, -p.Amount)
		if err != nil {
			return err
		}
		newBalance = balance

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("debit user %d: %w", p.UserID, err)
	}

	metrics.TransactionsTotal.WithLabelValues(string(p.Type)).Inc()

	return newBalance, nil
}

// Adjust applies a signed administrative correction. The balance may
// never go negative, so negative adjustments are checked under the same
// lock as debits. When AdminID is set, the mutation is written to the
// audit log.
func (s *BalanceService) Adjust(ctx context.Context, p *params.Adjust) (int64, error) {
	if p.Amount == 0 {
		return 0, fmt.Errorf("%w: adjustment amount must not be zero", errs.ErrInvalidRequest)
	}
	if p.Amount > 0 && !p.Type.ValidForCredit() {
		return 0, fmt.Errorf("%w: type %s is not allowed for a positive adjustment", errs.ErrInvalidRequest, p.Type)
	}
	if p.Amount < 0 && !p.Type.ValidForDebit() {
		return 0, fmt.Errorf("%w: type %s is not allowed for a negative adjustment", errs.ErrInvalidRequest, p.Type)
	}

	var newBalance int64

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetAccountForUpdate(ctx, p.UserID)
		if err != nil {
			return err
		}

		if account.Balance+p.Amount < 0 {
			return &errs.NotEnoughFundsError{
				Balance:   account.Balance,
				Requested: -p.Amount,
			}
		}

		t := &entities.Transaction{
			UserID: p.UserID,
			Type:   p.Type,
			Amount: p.Amount,
			RefID:  p.RefID,
		}
		if _, err = s.accountRepo.SaveTransaction(ctx, t); err != nil {
			return err
		}

		balance, err := s.accountRepo.ApplyBalanceDelta(ctx, p.UserID, p.Amount)
		if err != nil {
			return err
		}
		newBalance = balance

		if p.AdminID != nil {
			entry := &entities.AuditEntry{
				AdminID: *p.AdminID,
				Action:  entities.ActionBalanceAdjust,
				Payload: map[string]any{
					"user_id":    p.UserID,
					"amount_sum": p.Amount,
					"type":       string(p.Type),
					"reason":     p.Reason,
				},
			}
			if err = s.auditRepo.SaveEntry(ctx, entry); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("adjust user %d: %w", p.UserID, err)
	}

	metrics.TransactionsTotal.WithLabelValues(string(p.Type)).Inc()

	return newBalance, nil
}

func (s *BalanceService) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error) {
	return s.accountRepo.ListTransactions(ctx, userID, limit, offset)
}

// Reconcile reads the balance and the signed ledger sum under the
// account lock and reports both. A drift means a bug or manual data
// surgery; it is logged but the decision what to do is the caller's.
func (s *BalanceService) Reconcile(ctx context.Context, userID int64) (*entities.Reconciliation, error) {
	rec := &entities.Reconciliation{UserID: userID}

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetAccountForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		rec.Balance = account.Balance

		sum, err := s.accountRepo.SumTransactions(ctx, userID)
		if err != nil {
			return err
		}
		rec.LedgerSum = sum

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile user %d: %w", userID, err)
	}

	if !rec.Consistent() {
		s.logger.Errorf("ledger drift for user %d: balance %d, ledger sum %d",
			userID, rec.Balance, rec.LedgerSum)
	}

	return rec, nil
}
