package ledger

import (
	"context"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	"github.com/bankapp/ledger-core/internal/domain/port/notification"
)

// Deposit credits amount to the caller's account. The amount is validated
// before any lock or store access. The balance update and the Deposit log
// record commit as one durable unit; if either fails neither is observable.
func (s *Service) Deposit(ctx context.Context, userID uint64, accountNumber, amount string) (*Result, error) {
	cents, err := entity.ParsePositiveAmount(amount)
	if err != nil {
		return nil, err
	}

	release := s.locks.Acquire(accountNumber)
	defer release()

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, s.persistenceFailure("deposit", userID, "", accountNumber, entity.FormatAmount(cents), err)
	}
	defer s.rollback(txCtx)

	accounts := s.uow.Accounts(txCtx)

	// Ownership check scoped to (caller, account)
	if _, err := accounts.GetForOwner(txCtx, userID, accountNumber); err != nil {
		return nil, err
	}

	// Authoritative balance under the row lock
	account, err := accounts.GetForUpdate(txCtx, accountNumber)
	if err != nil {
		return nil, err
	}

	account.Credit(cents, s.timeProvider)
	if err := accounts.UpdateBalance(txCtx, account); err != nil {
		return nil, err
	}

	record, err := entity.NewDeposit(userID, accountNumber, cents, s.timeProvider)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Transactions(txCtx).Create(txCtx, record); err != nil {
		return nil, err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return nil, s.persistenceFailure("deposit", userID, "", accountNumber, entity.FormatAmount(cents), err)
	}

	s.logger.Info("Deposit committed", map[string]any{
		"user_id":     userID,
		"account":     accountNumber,
		"amount":      record.Amount,
		"new_balance": account.FormattedBalance(),
		"reference":   record.ReferenceID,
	})

	s.publishEvent(notification.EventDeposit, userID, accountNumber, "", cents, account.Balance())

	return &Result{
		Transaction: record,
		NewBalance:  account.FormattedBalance(),
	}, nil
}
