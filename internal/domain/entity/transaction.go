package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	errs "github.com/bankapp/ledger-core/internal/domain/error"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
)

// TransactionKind represents the kind of a ledger transaction record
type TransactionKind string

// Transaction kinds. FailedTransfer is a committed audit fact for a
// transfer that was rejected at the authoritative balance check.
const (
	KindDeposit        TransactionKind = "DEPOSIT"
	KindWithdrawal     TransactionKind = "WITHDRAWAL"
	KindTransfer       TransactionKind = "TRANSFER"
	KindFailedTransfer TransactionKind = "FAILED_TRANSFER"
)

// Transaction is an immutable, append-only ledger record of an attempted
// balance mutation. Exactly one of FromAccount/ToAccount is set for
// deposits and withdrawals; both are set for transfers and failed transfers.
// Account references are soft: the record stays valid as a historical fact
// even if an account is later removed by administration.
type Transaction struct {
	ID          uint64          // Primary key, assigned by the store
	ReferenceID string          // Globally unique reference for external correlation
	UserID      uint64          // User who initiated the operation
	FromAccount string          // Source account number, empty for deposits
	ToAccount   string          // Destination account number, empty for withdrawals
	AmountCents int64           // Positive amount in hundredths
	Amount      string          // Amount formatted with 2 decimal places
	Kind        TransactionKind // Deposit / Withdrawal / Transfer / FailedTransfer
	CreatedAt   time.Time       // Assigned at persistence time
}

// NewDeposit creates a deposit record crediting the given account
func NewDeposit(userID uint64, toAccount string, amountCents int64, timeProvider coreport.TimeProvider) (*Transaction, error) {
	return newTransaction(userID, "", toAccount, amountCents, KindDeposit, timeProvider)
}

// NewWithdrawal creates a withdrawal record debiting the given account
func NewWithdrawal(userID uint64, fromAccount string, amountCents int64, timeProvider coreport.TimeProvider) (*Transaction, error) {
	return newTransaction(userID, fromAccount, "", amountCents, KindWithdrawal, timeProvider)
}

// NewTransfer creates a transfer record between two distinct accounts
func NewTransfer(userID uint64, fromAccount, toAccount string, amountCents int64, timeProvider coreport.TimeProvider) (*Transaction, error) {
	return newTransaction(userID, fromAccount, toAccount, amountCents, KindTransfer, timeProvider)
}

// NewFailedTransfer creates the audit record for a transfer rejected on
// insufficient funds
func NewFailedTransfer(userID uint64, fromAccount, toAccount string, amountCents int64, timeProvider coreport.TimeProvider) (*Transaction, error) {
	return newTransaction(userID, fromAccount, toAccount, amountCents, KindFailedTransfer, timeProvider)
}

func newTransaction(
	userID uint64,
	fromAccount, toAccount string,
	amountCents int64,
	kind TransactionKind,
	timeProvider coreport.TimeProvider,
) (*Transaction, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: transaction amount must be positive", errs.ErrInvalidAmount)
	}
	if err := validateAccountPair(fromAccount, toAccount, kind); err != nil {
		return nil, err
	}

	return &Transaction{
		ReferenceID: uuid.New().String(),
		UserID:      userID,
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		AmountCents: amountCents,
		Amount:      FormatAmount(amountCents),
		Kind:        kind,
		CreatedAt:   timeProvider.Now(),
	}, nil
}

// validateAccountPair enforces the source/destination shape per kind
func validateAccountPair(fromAccount, toAccount string, kind TransactionKind) error {
	switch kind {
	case KindDeposit:
		if fromAccount != "" || toAccount == "" {
			return fmt.Errorf("%w: deposit requires a destination account only", errs.ErrInvalidAccountNumber)
		}
	case KindWithdrawal:
		if fromAccount == "" || toAccount != "" {
			return fmt.Errorf("%w: withdrawal requires a source account only", errs.ErrInvalidAccountNumber)
		}
	case KindTransfer, KindFailedTransfer:
		if fromAccount == "" || toAccount == "" {
			return fmt.Errorf("%w: transfer requires both accounts", errs.ErrInvalidAccountNumber)
		}
		if fromAccount == toAccount {
			return errs.ErrInvalidTransfer
		}
	default:
		return fmt.Errorf("%w: unknown transaction kind %q", errs.ErrInvalidRequest, kind)
	}
	return nil
}

// IsDebit reports whether the record debits its source account
func (t *Transaction) IsDebit() bool {
	return t.Kind == KindWithdrawal || t.Kind == KindTransfer
}

// IsCredit reports whether the record credits its destination account
func (t *Transaction) IsCredit() bool {
	return t.Kind == KindDeposit || t.Kind == KindTransfer
}
