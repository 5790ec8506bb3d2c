package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	errs "github.com/bankapp/ledger-core/internal/domain/error"
	"github.com/bankapp/ledger-core/internal/domain/port/notification"
	"github.com/bankapp/ledger-core/internal/domain/port/persistence"
)

func TestDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("Credits the account and appends one record", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		sink := &recordingSink{}
		svc := newTestService(store, sink)

		result, err := svc.Deposit(ctx, 1, "ACC-1001", "50.00")

		require.NoError(t, err)
		assert.Equal(t, "150.00", result.NewBalance)
		assert.Equal(t, entity.KindDeposit, result.Transaction.Kind)
		assert.Equal(t, "ACC-1001", result.Transaction.ToAccount)
		assert.Empty(t, result.Transaction.FromAccount)
		assert.Equal(t, int64(15000), store.balance("ACC-1001"))
		assert.Equal(t, 1, store.logSize())

		svc.Shutdown()
		events := sink.byKind(notification.EventDeposit)
		require.Len(t, events, 1)
		assert.Equal(t, "ACC-1001", events[0].Account)
		assert.Equal(t, "150", events[0].ResultingBalance.String())
	})

	t.Run("Rejects non-positive and malformed amounts", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		svc := newTestService(store, nil)

		for _, amount := range []string{"0", "0.00", "-5.00", "abc", "1.234", ""} {
			_, err := svc.Deposit(ctx, 1, "ACC-1001", amount)
			assert.Error(t, err, "amount %q", amount)
			assert.True(t, errs.IsValidationError(err), "amount %q", amount)
		}

		assert.Equal(t, int64(10000), store.balance("ACC-1001"))
		assert.Equal(t, 0, store.logSize())
	})

	t.Run("Unknown account", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, nil)

		_, err := svc.Deposit(ctx, 1, "ACC-9999", "50.00")
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})

	t.Run("Account owned by someone else", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(2, "ACC-1001", 10000)
		svc := newTestService(store, nil)

		_, err := svc.Deposit(ctx, 1, "ACC-1001", "50.00")
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
		assert.Equal(t, int64(10000), store.balance("ACC-1001"))
		assert.Equal(t, 0, store.logSize())
	})

	t.Run("Log append failure leaves the balance untouched", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		store.failLogAppend = fmt.Errorf("%w: disk full", errs.ErrDatabaseConnection)
		svc := newTestService(store, nil)

		_, err := svc.Deposit(ctx, 1, "ACC-1001", "50.00")

		assert.True(t, errs.IsPersistenceError(err))
		assert.Equal(t, int64(10000), store.balance("ACC-1001"))
		assert.Equal(t, 0, store.logSize())
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("Debits the account and appends one record", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		sink := &recordingSink{}
		svc := newTestService(store, sink)

		result, err := svc.Withdraw(ctx, 1, "ACC-1001", "40.00")

		require.NoError(t, err)
		assert.Equal(t, "60.00", result.NewBalance)
		assert.Equal(t, entity.KindWithdrawal, result.Transaction.Kind)
		assert.Equal(t, "ACC-1001", result.Transaction.FromAccount)
		assert.Equal(t, int64(6000), store.balance("ACC-1001"))
		assert.Equal(t, 1, store.logSize())

		svc.Shutdown()
		require.Len(t, sink.byKind(notification.EventWithdrawal), 1)
	})

	t.Run("Withdrawal to exactly zero succeeds", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		svc := newTestService(store, nil)

		result, err := svc.Withdraw(ctx, 1, "ACC-1001", "100.00")

		require.NoError(t, err)
		assert.Equal(t, "0.00", result.NewBalance)
		assert.Equal(t, int64(0), store.balance("ACC-1001"))
	})

	t.Run("Insufficient funds leaves no trace", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		sink := &recordingSink{}
		svc := newTestService(store, sink)

		_, err := svc.Withdraw(ctx, 1, "ACC-1001", "150.00")

		assert.True(t, errs.IsInsufficientFundsError(err))
		assert.Equal(t, int64(10000), store.balance("ACC-1001"))
		assert.Equal(t, 0, store.logSize())

		svc.Shutdown()
		assert.Empty(t, sink.events)
	})

	t.Run("Account owned by someone else", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(2, "ACC-1001", 10000)
		svc := newTestService(store, nil)

		_, err := svc.Withdraw(ctx, 1, "ACC-1001", "40.00")
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("Commit failure carries the operation context", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		store.failCommit = fmt.Errorf("connection reset by peer")
		svc := newTestService(store, nil)

		_, err := svc.Withdraw(ctx, 1, "ACC-1001", "40.00")

		var lerr *errs.LedgerError
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, "withdraw", lerr.Operation)
		assert.Equal(t, uint64(1), lerr.UserID)
		assert.Equal(t, "ACC-1001", lerr.FromAccount)
		assert.Equal(t, "40.00", lerr.Amount)
		assert.True(t, errs.IsPersistenceError(err))

		// Nothing staged in the failed scope became visible
		assert.Equal(t, int64(10000), store.balance("ACC-1001"))
		assert.Equal(t, 0, store.logSize())
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("Moves amount atomically with one record", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		store.addAccount(2, "ACC-2002", 0)
		sink := &recordingSink{}
		svc := newTestService(store, sink)

		result, err := svc.Transfer(ctx, 1, "ACC-1001", "ACC-2002", "40.00")

		require.NoError(t, err)
		assert.Equal(t, "60.00", result.NewBalance)
		assert.Equal(t, entity.KindTransfer, result.Transaction.Kind)
		assert.Equal(t, int64(6000), store.balance("ACC-1001"))
		assert.Equal(t, int64(4000), store.balance("ACC-2002"))
		assert.Equal(t, 1, store.logSize())

		svc.Shutdown()
		debits := sink.byKind(notification.EventTransferDebit)
		credits := sink.byKind(notification.EventTransferCredit)
		require.Len(t, debits, 1)
		require.Len(t, credits, 1)
		// The credit event goes to the destination owner
		assert.Equal(t, uint64(1), debits[0].UserID)
		assert.Equal(t, uint64(2), credits[0].UserID)
	})

	t.Run("Insufficient funds commits only a failed-transfer record", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 1000)
		store.addAccount(2, "ACC-2002", 0)
		sink := &recordingSink{}
		svc := newTestService(store, sink)

		_, err := svc.Transfer(ctx, 1, "ACC-1001", "ACC-2002", "40.00")

		assert.True(t, errs.IsInsufficientFundsError(err))
		assert.Equal(t, int64(1000), store.balance("ACC-1001"))
		assert.Equal(t, int64(0), store.balance("ACC-2002"))

		failed := store.recordsByKind(entity.KindFailedTransfer)
		require.Len(t, failed, 1)
		assert.Equal(t, "ACC-1001", failed[0].FromAccount)
		assert.Equal(t, "ACC-2002", failed[0].ToAccount)
		assert.Equal(t, 1, store.logSize())

		svc.Shutdown()
		require.Len(t, sink.byKind(notification.EventTransferFailed), 1)
	})

	t.Run("Same source and destination", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		svc := newTestService(store, nil)

		_, err := svc.Transfer(ctx, 1, "ACC-1001", "ACC-1001", "40.00")
		assert.ErrorIs(t, err, errs.ErrInvalidTransfer)
		assert.Equal(t, 0, store.logSize())
	})

	t.Run("Missing destination fails the whole operation", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		svc := newTestService(store, nil)

		_, err := svc.Transfer(ctx, 1, "ACC-1001", "ACC-9999", "40.00")

		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
		assert.Equal(t, int64(10000), store.balance("ACC-1001"))
		assert.Equal(t, 0, store.logSize())
	})

	t.Run("Source not owned by caller", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(2, "ACC-1001", 10000)
		store.addAccount(3, "ACC-2002", 0)
		svc := newTestService(store, nil)

		_, err := svc.Transfer(ctx, 1, "ACC-1001", "ACC-2002", "40.00")
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("Balance write failure aborts both sides", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		store.addAccount(2, "ACC-2002", 0)
		store.failBalanceWrite = fmt.Errorf("%w: write failed", errs.ErrDatabaseConnection)
		svc := newTestService(store, nil)

		_, err := svc.Transfer(ctx, 1, "ACC-1001", "ACC-2002", "40.00")

		assert.True(t, errs.IsPersistenceError(err))
		assert.Equal(t, int64(10000), store.balance("ACC-1001"))
		assert.Equal(t, int64(0), store.balance("ACC-2002"))
		assert.Equal(t, 0, store.logSize())
	})
}

func TestBalance(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.addAccount(1, "ACC-1001", 0)
	store.addAccount(2, "ACC-2002", 5000)
	svc := newTestService(store, nil)

	t.Run("Zero balance is a valid result", func(t *testing.T) {
		account, err := svc.Balance(ctx, 1, "ACC-1001")
		require.NoError(t, err)
		assert.Equal(t, int64(0), account.Balance())
		assert.Equal(t, "0.00", account.FormattedBalance())
	})

	t.Run("Unknown account is not found", func(t *testing.T) {
		_, err := svc.Balance(ctx, 1, "ACC-9999")
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})

	t.Run("Existing account of another user is unauthorized", func(t *testing.T) {
		_, err := svc.Balance(ctx, 1, "ACC-2002")
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.addAccount(1, "ACC-1001", 100000)
	store.addAccount(2, "ACC-2002", 0)
	svc := newTestService(store, nil)

	_, err := svc.Deposit(ctx, 1, "ACC-1001", "10.00")
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, 1, "ACC-1001", "25.00")
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, 1, "ACC-1001", "ACC-2002", "50.00")
	require.NoError(t, err)

	t.Run("Returns the caller's records newest first", func(t *testing.T) {
		records, err := svc.History(ctx, 1, persistence.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, entity.KindTransfer, records[0].Kind)
		assert.Equal(t, entity.KindWithdrawal, records[1].Kind)
		assert.Equal(t, entity.KindDeposit, records[2].Kind)
	})

	t.Run("Filters by kind", func(t *testing.T) {
		records, err := svc.History(ctx, 1, persistence.TransactionFilter{Kind: entity.KindDeposit})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "10.00", records[0].Amount)
	})

	t.Run("Filters by amount range", func(t *testing.T) {
		min := int64(2000)
		records, err := svc.History(ctx, 1, persistence.TransactionFilter{MinAmount: &min})
		require.NoError(t, err)
		assert.Len(t, records, 2)

		max := int64(3000)
		records, err = svc.History(ctx, 1, persistence.TransactionFilter{MinAmount: &min, MaxAmount: &max})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, entity.KindWithdrawal, records[0].Kind)
	})

	t.Run("Other users see nothing", func(t *testing.T) {
		records, err := svc.History(ctx, 2, persistence.TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestConcurrentWithdrawals(t *testing.T) {
	// 20 goroutines each withdrawing 10.00 from 105.00: exactly 10 must
	// succeed and the final balance must be the remainder.
	ctx := context.Background()

	store := newFakeStore()
	store.addAccount(1, "ACC-1001", 10500)
	svc := newTestService(store, nil)

	const goroutines = 20
	var successes, rejections int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, 1, "ACC-1001", "10.00")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errs.IsInsufficientFundsError(err):
				rejections++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), successes)
	assert.Equal(t, int64(10), rejections)
	assert.Equal(t, int64(500), store.balance("ACC-1001"))
	assert.Len(t, store.recordsByKind(entity.KindWithdrawal), 10)
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	// Opposite-direction transfers over the same pair must neither deadlock
	// nor create or destroy money.
	ctx := context.Background()

	store := newFakeStore()
	store.addAccount(1, "ACC-A", 10000)
	store.addAccount(2, "ACC-B", 10000)
	svc := newTestService(store, nil)

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := svc.Transfer(ctx, 1, "ACC-A", "ACC-B", "1.00")
			if err != nil && !errs.IsInsufficientFundsError(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := svc.Transfer(ctx, 2, "ACC-B", "ACC-A", "1.00")
			if err != nil && !errs.IsInsufficientFundsError(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("opposite transfers deadlocked")
	}

	assert.Equal(t, int64(20000), store.totalBalance())
}

func TestTransferConservation(t *testing.T) {
	// Many concurrent transfers around a ring of accounts: the total must
	// be exactly what was opened.
	ctx := context.Background()

	store := newFakeStore()
	numbers := []string{"ACC-1", "ACC-2", "ACC-3", "ACC-4"}
	for i, number := range numbers {
		store.addAccount(uint64(i+1), number, 25000)
	}
	svc := newTestService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < len(numbers); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := numbers[i]
			to := numbers[(i+1)%len(numbers)]
			for j := 0; j < 25; j++ {
				_, err := svc.Transfer(ctx, uint64(i+1), from, to, "7.00")
				if err != nil && !errs.IsInsufficientFundsError(err) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(100000), store.totalBalance())
}

func TestEventPublishing(t *testing.T) {
	ctx := context.Background()

	t.Run("Publish failure never fails the operation", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		sink := &recordingSink{err: fmt.Errorf("broker unreachable")}
		svc := newTestService(store, sink)

		result, err := svc.Deposit(ctx, 1, "ACC-1001", "50.00")

		require.NoError(t, err)
		assert.Equal(t, "150.00", result.NewBalance)
		assert.Equal(t, int64(15000), store.balance("ACC-1001"))
		svc.Shutdown()
	})

	t.Run("Nil sink is tolerated", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		svc := newTestService(store, nil)

		_, err := svc.Deposit(ctx, 1, "ACC-1001", "50.00")
		require.NoError(t, err)
		svc.Shutdown()
	})

	t.Run("Shutdown drains in-flight publishes", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(1, "ACC-1001", 10000)
		sink := &recordingSink{}
		svc := newTestService(store, sink)

		for i := 0; i < 5; i++ {
			_, err := svc.Deposit(ctx, 1, "ACC-1001", "1.00")
			require.NoError(t, err)
		}
		svc.Shutdown()

		assert.Len(t, sink.byKind(notification.EventDeposit), 5)
	})
}
