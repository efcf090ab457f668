package services

import (
	"context"
	"sync"
	"testing"
	"time"

	trm "github.com/avito-tech/go-transaction-manager/trm/v2"
	trmcontext "github.com/avito-tech/go-transaction-manager/trm/v2/context"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/models/errs"
)

type memTxKey struct{}

// memTx implements trm.Transaction over the in-memory repositories.
// Mutations register undo callbacks; rollback replays them in reverse,
// commit discards them. Row locks registered by the repositories are
// released either way.
type memTx struct {
	undo     []func()
	releases []func()
	active   bool
	mu       sync.Mutex
}

func (tx *memTx) Transaction() interface{} { return tx }

func (tx *memTx) IsActive() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.active
}

func (tx *memTx) Commit(context.Context) error {
	tx.finish(false)
	return nil
}

func (tx *memTx) Rollback(context.Context) error {
	tx.finish(true)
	return nil
}

func (tx *memTx) finish(rollback bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if !tx.active {
		return
	}
	tx.active = false
	if rollback {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}
	tx.undo = nil
	for i := len(tx.releases) - 1; i >= 0; i-- {
		tx.releases[i]()
	}
	tx.releases = nil
}

func (tx *memTx) onRollback(f func()) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.undo = append(tx.undo, f)
}

func (tx *memTx) onFinish(release func()) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.releases = append(tx.releases, release)
}

func txFromContext(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// newTestTrm builds a transaction manager over in-memory transactions,
// so the services exercise real demarcation: writes into the mock
// repositories are undone when the enclosing trm.Do rolls back, and
// row locks hold until commit or rollback.
func newTestTrm(t *testing.T) *manager.Manager {
	t.Helper()

	return manager.Must(
		func(ctx context.Context, _ trm.Settings) (context.Context, trm.Transaction, error) {
			tx := &memTx{active: true}
			return context.WithValue(ctx, memTxKey{}, tx), tx, nil
		},
		manager.WithCtxManager(trmcontext.DefaultManager),
	)
}

// rowLock emulates SELECT ... FOR UPDATE: held from acquisition until
// the owning transaction finishes.
type rowLock struct {
	mu    sync.Mutex
	owner *memTx
}

// Lock in case of t.Parallel call.
type mockAccountRepository struct {
	accounts     map[int64]*entities.Account
	transactions []*entities.Transaction
	rowLocks     map[int64]*rowLock
	nextTxID     int64
	mu           sync.Mutex
}

func newMockAccountRepository(balances map[int64]int64) *mockAccountRepository {
	accounts := make(map[int64]*entities.Account, len(balances))
	for userID, balance := range balances {
		accounts[userID] = &entities.Account{
			UserID:    userID,
			Balance:   balance,
			CreatedAt: time.Now(),
		}
	}
	return &mockAccountRepository{
		accounts: accounts,
		rowLocks: make(map[int64]*rowLock),
	}
}

func (m *mockAccountRepository) GetAccount(_ context.Context, userID int64) (*entities.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *mockAccountRepository) GetAccountForUpdate(ctx context.Context, userID int64) (*entities.Account, error) {
	if tx := txFromContext(ctx); tx != nil {
		m.lockRow(tx, userID)
	}
	return m.GetAccount(ctx, userID)
}

// lockRow blocks until the account row is free, then parks the lock on
// the transaction. Reacquisition by the owning transaction is a no-op.
func (m *mockAccountRepository) lockRow(tx *memTx, userID int64) {
	m.mu.Lock()
	l, ok := m.rowLocks[userID]
	if !ok {
		l = &rowLock{}
		m.rowLocks[userID] = l
	}
	owned := l.owner == tx
	m.mu.Unlock()

	if owned {
		return
	}

	l.mu.Lock()
	m.mu.Lock()
	l.owner = tx
	m.mu.Unlock()

	tx.onFinish(func() {
		m.mu.Lock()
		l.owner = nil
		m.mu.Unlock()
		l.mu.Unlock()
	})
}

func (m *mockAccountRepository) ApplyBalanceDelta(ctx context.Context, userID, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[userID]
	if !ok {
		return 0, errs.ErrNotFound
	}
	account.Balance += delta

	if tx := txFromContext(ctx); tx != nil {
		tx.onRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if a, ok := m.accounts[userID]; ok {
				a.Balance -= delta
			}
		})
	}

	return account.Balance, nil
}

func (m *mockAccountRepository) SaveTransaction(ctx context.Context, t *entities.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTxID++
	t.ID = m.nextTxID
	t.CreatedAt = time.Now()
	copied := *t
	m.transactions = append(m.transactions, &copied)

	if tx := txFromContext(ctx); tx != nil {
		id := t.ID
		tx.onRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, item := range m.transactions {
				if item.ID == id {
					m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
					return
				}
			}
		})
	}

	return t.ID, nil
}

func (m *mockAccountRepository) ListTransactions(_ context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAccountRepository) SumTransactions(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.transactions {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (m *mockAccountRepository) ListAllTransactions(_ context.Context) ([]*entities.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.Transaction(nil), m.transactions...), nil
}

type mockWithdrawalRepository struct {
	items  []*entities.Withdrawal
	nextID int64
	mu     sync.Mutex
}

func (m *mockWithdrawalRepository) CreateWithdrawal(ctx context.Context, w *entities.Withdrawal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.UserID == w.UserID && item.Status.Open() {
			return 0, errs.ErrOpenWithdrawal
		}
	}
	m.nextID++
	w.ID = m.nextID
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	copied := *w
	m.items = append(m.items, &copied)

	if tx := txFromContext(ctx); tx != nil {
		id := w.ID
		tx.onRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, item := range m.items {
				if item.ID == id {
					m.items = append(m.items[:i], m.items[i+1:]...)
					return
				}
			}
		})
	}

	return w.ID, nil
}

func (m *mockWithdrawalRepository) GetWithdrawal(_ context.Context, id int64) (*entities.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			copied := *item
			return &copied, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *mockWithdrawalRepository) GetWithdrawalForUpdate(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	return m.GetWithdrawal(ctx, id)
}

func (m *mockWithdrawalRepository) UpdateWithdrawal(ctx context.Context, w *entities.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == w.ID {
			prev := item
			copied := *w
			copied.UpdatedAt = time.Now()
			m.items[i] = &copied

			if tx := txFromContext(ctx); tx != nil {
				tx.onRollback(func() {
					m.mu.Lock()
					defer m.mu.Unlock()
					for j, it := range m.items {
						if it.ID == prev.ID {
							m.items[j] = prev
							return
						}
					}
				})
			}

			return nil
		}
	}
	return errs.ErrNotFound
}

func (m *mockWithdrawalRepository) HasOpenWithdrawal(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.UserID == userID && item.Status.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWithdrawalRepository) ListWithdrawals(_ context.Context, userID int64) ([]*entities.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Withdrawal
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockWithdrawalRepository) ListAllWithdrawals(_ context.Context) ([]*entities.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.Withdrawal(nil), m.items...), nil
}

type mockReferralRepository struct {
	items  []*entities.Referral
	nextID int64
	mu     sync.Mutex
}

func (m *mockReferralRepository) GetOrCreateReferral(ctx context.Context, referrerID, referredID int64) (*entities.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ReferrerUserID == referrerID && item.ReferredUserID == referredID {
			copied := *item
			return &copied, nil
		}
	}
	m.nextID++
	ref := &entities.Referral{
		ID:             m.nextID,
		ReferrerUserID: referrerID,
		ReferredUserID: referredID,
		Status:         entities.ReferralPending,
		CreatedAt:      time.Now(),
	}
	m.items = append(m.items, ref)

	if tx := txFromContext(ctx); tx != nil {
		id := ref.ID
		tx.onRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, item := range m.items {
				if item.ID == id {
					m.items = append(m.items[:i], m.items[i+1:]...)
					return
				}
			}
		})
	}

	copied := *ref
	return &copied, nil
}

func (m *mockReferralRepository) UpdateReferral(ctx context.Context, id int64, status entities.ReferralStatus, bonus int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			prevStatus, prevBonus := item.Status, item.BonusSum
			item.Status = status
			item.BonusSum = bonus

			if tx := txFromContext(ctx); tx != nil {
				ref := item
				tx.onRollback(func() {
					m.mu.Lock()
					defer m.mu.Unlock()
					ref.Status = prevStatus
					ref.BonusSum = prevBonus
				})
			}

			return nil
		}
	}
	return errs.ErrNotFound
}

func (m *mockReferralRepository) GetStats(_ context.Context, referrerID int64) (*entities.ReferralStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := new(entities.ReferralStats)
	for _, item := range m.items {
		if item.ReferrerUserID != referrerID {
			continue
		}
		stats.InvitedCount++
		if item.Status == entities.ReferralPaid {
			stats.PaidSum += item.BonusSum
		}
	}
	return stats, nil
}

func (m *mockReferralRepository) ListAllReferrals(_ context.Context) ([]*entities.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.Referral(nil), m.items...), nil
}

type mockAuditRepository struct {
	entries []*entities.AuditEntry
	mu      sync.Mutex
}

func (m *mockAuditRepository) SaveEntry(ctx context.Context, e *entities.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *e
	p := &copied
	m.entries = append(m.entries, p)

	if tx := txFromContext(ctx); tx != nil {
		tx.onRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, item := range m.entries {
				if item == p {
					m.entries = append(m.entries[:i], m.entries[i+1:]...)
					return
				}
			}
		})
	}

	return nil
}

type mockSettingsRepository struct {
	settings entities.Settings
}

func (m *mockSettingsRepository) GetSettings(_ context.Context) (*entities.Settings, error) {
	copied := m.settings
	return &copied, nil
}

type mockNotifier struct {
	userMessages    []string
	channelMessages []string
	mu              sync.Mutex
}

func (m *mockNotifier) NotifyUser(_ context.Context, _ int64, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userMessages = append(m.userMessages, text)
}

func (m *mockNotifier) NotifyPayoutChannel(_ context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelMessages = append(m.channelMessages, text)
}
