package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	errs "github.com/bankapp/ledger-core/internal/domain/error"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/domain/port/notification"
	"github.com/bankapp/ledger-core/internal/domain/port/persistence"
)

// testClock is a TimeProvider advancing one millisecond per Now call so
// persisted timestamps are distinct and ordered. Safe for concurrent use.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *testClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(t)
}

func (c *testClock) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// nopLogger discards everything
type nopLogger struct{}

func (nopLogger) SetLevel(coreport.LogLevel)   {}
func (nopLogger) GetLevel() coreport.LogLevel  { return coreport.LogLevelError }
func (nopLogger) Debug(string, map[string]any) {}
func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Warn(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}
func (nopLogger) Flush() error                 { return nil }

// recordingSink captures published events; a non-nil err fails every publish
type recordingSink struct {
	mu     sync.Mutex
	events []notification.BalanceEvent
	err    error
}

func (s *recordingSink) Publish(_ context.Context, event notification.BalanceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byKind(kind notification.EventKind) []notification.BalanceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notification.BalanceEvent
	for _, e := range s.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// acctRow is the fake store's persisted account state
type acctRow struct {
	userID  uint64
	number  string
	kind    entity.AccountType
	balance int64
}

// fakeStore is an in-memory stand-in for the durable store. Balance writes
// and log appends staged in a transactional scope become visible together
// at commit, under one store-wide mutex.
type fakeStore struct {
	mu        sync.Mutex
	accounts  map[string]*acctRow
	log       []*entity.Transaction
	nextLogID uint64

	failLogAppend    error
	failBalanceWrite error
	failCommit       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]*acctRow)}
}

func (s *fakeStore) addAccount(userID uint64, number string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[number] = &acctRow{userID: userID, number: number, kind: entity.AccountSavings, balance: balance}
}

func (s *fakeStore) balance(number string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[number].balance
}

func (s *fakeStore) totalBalance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, row := range s.accounts {
		total += row.balance
	}
	return total
}

func (s *fakeStore) recordsByKind(kind entity.TransactionKind) []*entity.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Transaction
	for _, r := range s.log {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeStore) logSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

type fakeTxKey struct{}

// fakeTx stages writes until commit
type fakeTx struct {
	finished bool
	pendBal  map[string]int64
	pendLog  []*entity.Transaction
}

func txFrom(ctx context.Context) *fakeTx {
	tx, _ := ctx.Value(fakeTxKey{}).(*fakeTx)
	return tx
}

// fakeUnitOfWork implements persistence.UnitOfWork over the fake store
type fakeUnitOfWork struct {
	store *fakeStore
	clock coreport.TimeProvider
}

func newFakeUnitOfWork(store *fakeStore, clock coreport.TimeProvider) *fakeUnitOfWork {
	return &fakeUnitOfWork{store: store, clock: clock}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	tx := &fakeTx{pendBal: make(map[string]int64)}
	return context.WithValue(ctx, fakeTxKey{}, tx), nil
}

func (u *fakeUnitOfWork) Commit(ctx context.Context) error {
	tx := txFrom(ctx)
	if tx == nil || tx.finished {
		return fmt.Errorf("%w: no active transaction", errs.ErrDatabaseConnection)
	}
	if u.store.failCommit != nil {
		return u.store.failCommit
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for number, balance := range tx.pendBal {
		u.store.accounts[number].balance = balance
	}
	for _, record := range tx.pendLog {
		u.store.nextLogID++
		record.ID = u.store.nextLogID
		u.store.log = append(u.store.log, record)
	}
	tx.finished = true
	return nil
}

func (u *fakeUnitOfWork) Rollback(ctx context.Context) error {
	tx := txFrom(ctx)
	if tx == nil || tx.finished {
		return nil
	}
	tx.finished = true
	tx.pendBal = nil
	tx.pendLog = nil
	return nil
}

func (u *fakeUnitOfWork) Accounts(ctx context.Context) persistence.AccountRepository {
	return &fakeAccountRepo{store: u.store, tx: txFrom(ctx), clock: u.clock}
}

func (u *fakeUnitOfWork) Transactions(ctx context.Context) persistence.TransactionRepository {
	return &fakeTransactionRepo{store: u.store, tx: txFrom(ctx)}
}

type fakeAccountRepo struct {
	store *fakeStore
	tx    *fakeTx
	clock coreport.TimeProvider
}

// effectiveBalance prefers a balance staged in this transactional scope
func (r *fakeAccountRepo) effectiveBalance(row *acctRow) int64 {
	if r.tx != nil {
		if pending, ok := r.tx.pendBal[row.number]; ok {
			return pending
		}
	}
	return row.balance
}

func (r *fakeAccountRepo) hydrate(row *acctRow, balance int64) (*entity.Account, error) {
	account, err := entity.NewAccount(row.userID, row.number, string(row.kind), "0.00", r.clock)
	if err != nil {
		return nil, err
	}
	if err := account.SetBalance(balance, r.clock); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.accounts[account.Number]; exists {
		return errs.ErrDuplicateAccount
	}
	r.store.accounts[account.Number] = &acctRow{
		userID:  account.UserID,
		number:  account.Number,
		kind:    account.Type,
		balance: account.Balance(),
	}
	return nil
}

func (r *fakeAccountRepo) GetByNumber(_ context.Context, number string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.accounts[number]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	return r.hydrate(row, r.effectiveBalance(row))
}

func (r *fakeAccountRepo) GetForOwner(_ context.Context, userID uint64, number string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.accounts[number]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	if row.userID != userID {
		return nil, errs.ErrUnauthorized
	}
	return r.hydrate(row, r.effectiveBalance(row))
}

func (r *fakeAccountRepo) GetForUpdate(_ context.Context, number string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.accounts[number]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	return r.hydrate(row, r.effectiveBalance(row))
}

func (r *fakeAccountRepo) UpdateBalance(_ context.Context, account *entity.Account) error {
	if r.store.failBalanceWrite != nil {
		return r.store.failBalanceWrite
	}
	if r.tx == nil || r.tx.finished {
		return fmt.Errorf("%w: balance write outside transaction", errs.ErrDatabaseConnection)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.accounts[account.Number]; !ok {
		return errs.ErrAccountNotFound
	}
	r.tx.pendBal[account.Number] = account.Balance()
	return nil
}

func (r *fakeAccountRepo) ListByUser(_ context.Context, userID uint64) ([]*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Account
	for _, row := range r.store.accounts {
		if row.userID != userID {
			continue
		}
		account, err := r.hydrate(row, row.balance)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

type fakeTransactionRepo struct {
	store *fakeStore
	tx    *fakeTx
}

func (r *fakeTransactionRepo) Create(_ context.Context, transaction *entity.Transaction) error {
	if r.store.failLogAppend != nil {
		return r.store.failLogAppend
	}
	if r.tx == nil || r.tx.finished {
		return fmt.Errorf("%w: log append outside transaction", errs.ErrDatabaseConnection)
	}
	r.tx.pendLog = append(r.tx.pendLog, transaction)
	return nil
}

func (r *fakeTransactionRepo) ListByUser(_ context.Context, userID uint64, filter persistence.TransactionFilter) ([]*entity.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Transaction
	// Newest first
	for i := len(r.store.log) - 1; i >= 0; i-- {
		record := r.store.log[i]
		if record.UserID != userID {
			continue
		}
		if filter.Kind != "" && record.Kind != filter.Kind {
			continue
		}
		if filter.From != nil && record.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && record.CreatedAt.After(*filter.To) {
			continue
		}
		if filter.MinAmount != nil && record.AmountCents < *filter.MinAmount {
			continue
		}
		if filter.MaxAmount != nil && record.AmountCents > *filter.MaxAmount {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// newTestService wires a ledger service over the fake store
func newTestService(store *fakeStore, sink notification.Sink) *Service {
	clock := newTestClock()
	return NewService(
		newFakeUnitOfWork(store, clock),
		NewLockCoordinator(),
		sink,
		clock,
		nopLogger{},
	)
}
