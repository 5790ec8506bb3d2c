package ledger

import (
	"context"
	"sort"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	errs "github.com/bankapp/ledger-core/internal/domain/error"
	"github.com/bankapp/ledger-core/internal/domain/port/notification"
)

// Transfer moves amount from the caller's source account to the
// destination account. Both process locks are taken in canonical order,
// and the two rows are read for update in that same order so the store
// cannot deadlock either. A transfer rejected on insufficient funds is a
// normal outcome: it commits a FailedTransfer audit record (and nothing
// else) before reporting ErrInsufficientFunds. A successful transfer
// commits both balance writes and the Transfer record atomically, then
// emits debit and credit events with post-commit balances.
func (s *Service) Transfer(ctx context.Context, userID uint64, fromAccount, toAccount, amount string) (*Result, error) {
	cents, err := entity.ParsePositiveAmount(amount)
	if err != nil {
		return nil, err
	}
	if fromAccount == toAccount {
		return nil, errs.ErrInvalidTransfer
	}

	release := s.locks.Acquire(fromAccount, toAccount)
	defer release()

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, s.persistenceFailure("transfer", userID, fromAccount, toAccount, entity.FormatAmount(cents), err)
	}
	defer s.rollback(txCtx)

	accounts := s.uow.Accounts(txCtx)

	// Source ownership check; the destination may belong to anyone
	if _, err := accounts.GetForOwner(txCtx, userID, fromAccount); err != nil {
		return nil, err
	}

	// Row locks in the same canonical order as the process locks. A missing
	// destination fails the whole operation rather than silently skipping
	// the credit.
	locked := make(map[string]*entity.Account, 2)
	for _, number := range canonicalOrder(fromAccount, toAccount) {
		account, err := accounts.GetForUpdate(txCtx, number)
		if err != nil {
			return nil, err
		}
		locked[number] = account
	}
	source, dest := locked[fromAccount], locked[toAccount]

	if !source.CanDebit(cents) {
		// The rejected attempt is itself a committed audit fact. No balance
		// has been touched inside this scope, so committing here persists
		// the FailedTransfer record alone.
		record, err := entity.NewFailedTransfer(userID, fromAccount, toAccount, cents, s.timeProvider)
		if err != nil {
			return nil, err
		}
		if err := s.uow.Transactions(txCtx).Create(txCtx, record); err != nil {
			return nil, err
		}
		if err := s.uow.Commit(txCtx); err != nil {
			return nil, s.persistenceFailure("transfer", userID, fromAccount, toAccount, entity.FormatAmount(cents), err)
		}

		s.logger.Warn("Transfer rejected on insufficient funds", map[string]any{
			"user_id":      userID,
			"from_account": fromAccount,
			"to_account":   toAccount,
			"amount":       record.Amount,
			"balance":      source.FormattedBalance(),
			"reference":    record.ReferenceID,
		})

		s.publishEvent(notification.EventTransferFailed, userID, fromAccount, toAccount, cents, source.Balance())

		return nil, errs.NewInsufficientFundsError(fromAccount, entity.FormatAmount(cents), source.FormattedBalance())
	}

	if err := source.Debit(cents, s.timeProvider); err != nil {
		return nil, err
	}
	dest.Credit(cents, s.timeProvider)

	if err := accounts.UpdateBalance(txCtx, source); err != nil {
		return nil, err
	}
	if err := accounts.UpdateBalance(txCtx, dest); err != nil {
		return nil, err
	}

	record, err := entity.NewTransfer(userID, fromAccount, toAccount, cents, s.timeProvider)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Transactions(txCtx).Create(txCtx, record); err != nil {
		return nil, err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return nil, s.persistenceFailure("transfer", userID, fromAccount, toAccount, entity.FormatAmount(cents), err)
	}

	s.logger.Info("Transfer committed", map[string]any{
		"user_id":      userID,
		"from_account": fromAccount,
		"to_account":   toAccount,
		"amount":       record.Amount,
		"from_balance": source.FormattedBalance(),
		"to_balance":   dest.FormattedBalance(),
		"reference":    record.ReferenceID,
	})

	s.publishEvent(notification.EventTransferDebit, userID, fromAccount, toAccount, cents, source.Balance())
	s.publishEvent(notification.EventTransferCredit, dest.UserID, toAccount, fromAccount, cents, dest.Balance())

	return &Result{
		Transaction: record,
		NewBalance:  source.FormattedBalance(),
	}, nil
}

// canonicalOrder returns the two account numbers sorted lexicographically,
// matching the lock coordinator's acquisition order
func canonicalOrder(a, b string) []string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair
}
