package ledger

import (
	"context"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	errs "github.com/bankapp/ledger-core/internal/domain/error"
	"github.com/bankapp/ledger-core/internal/domain/port/notification"
)

// Withdraw debits amount from the caller's account. The insufficient-funds
// decision is made against the balance read under the row lock, so a
// concurrent writer in another process cannot slip between the check and
// the debit. On any failure the durable scope aborts with no partial
// effect; the process lock is released on every exit path.
func (s *Service) Withdraw(ctx context.Context, userID uint64, accountNumber, amount string) (*Result, error) {
	cents, err := entity.ParsePositiveAmount(amount)
	if err != nil {
		return nil, err
	}

	release := s.locks.Acquire(accountNumber)
	defer release()

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, s.persistenceFailure("withdraw", userID, accountNumber, "", entity.FormatAmount(cents), err)
	}
	defer s.rollback(txCtx)

	accounts := s.uow.Accounts(txCtx)

	if _, err := accounts.GetForOwner(txCtx, userID, accountNumber); err != nil {
		return nil, err
	}

	account, err := accounts.GetForUpdate(txCtx, accountNumber)
	if err != nil {
		return nil, err
	}

	if !account.CanDebit(cents) {
		s.logger.Warn("Withdrawal rejected on insufficient funds", map[string]any{
			"user_id": userID,
			"account": accountNumber,
			"amount":  entity.FormatAmount(cents),
			"balance": account.FormattedBalance(),
		})
		return nil, errs.NewInsufficientFundsError(accountNumber, entity.FormatAmount(cents), account.FormattedBalance())
	}

	if err := account.Debit(cents, s.timeProvider); err != nil {
		return nil, err
	}
	if err := accounts.UpdateBalance(txCtx, account); err != nil {
		return nil, err
	}

	record, err := entity.NewWithdrawal(userID, accountNumber, cents, s.timeProvider)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Transactions(txCtx).Create(txCtx, record); err != nil {
		return nil, err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return nil, s.persistenceFailure("withdraw", userID, accountNumber, "", entity.FormatAmount(cents), err)
	}

	s.logger.Info("Withdrawal committed", map[string]any{
		"user_id":     userID,
		"account":     accountNumber,
		"amount":      record.Amount,
		"new_balance": account.FormattedBalance(),
		"reference":   record.ReferenceID,
	})

	s.publishEvent(notification.EventWithdrawal, userID, accountNumber, "", cents, account.Balance())

	return &Result{
		Transaction: record,
		NewBalance:  account.FormattedBalance(),
	}, nil
}
