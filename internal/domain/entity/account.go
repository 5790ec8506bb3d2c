package entity

import (
	"strings"
	"time"

	errs "github.com/bankapp/ledger-core/internal/domain/error"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
)

// AccountType is the closed set of supported account kinds
type AccountType string

const (
	AccountSavings AccountType = "SAVINGS"
	AccountCurrent AccountType = "CURRENT"
)

// Account represents a bank account owned by a single user.
// The balance is private and only mutated through Credit/Debit so the
// non-negative invariant cannot be bypassed.
type Account struct {
	ID        uint64      // Primary key
	UserID    uint64      // Owning user
	Number    string      // Unique account number, immutable once created
	Type      AccountType // Savings / Current
	balance   int64       // Balance in hundredths, never negative
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates a new account with the given owner, number, type and
// opening balance
func NewAccount(userID uint64, number string, accountType string, openingBalance string, timeProvider coreport.TimeProvider) (*Account, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if strings.TrimSpace(number) == "" {
		return nil, errs.ErrInvalidAccountNumber
	}
	if !isValidAccountType(accountType) {
		return nil, errs.ErrInvalidAccountType
	}

	balance, err := ParseAmount(openingBalance)
	if err != nil {
		return nil, err
	}

	now := timeProvider.Now()
	return &Account{
		UserID:    userID,
		Number:    number,
		Type:      AccountType(accountType),
		balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Balance returns the current balance in hundredths
func (a *Account) Balance() int64 {
	return a.balance
}

// FormattedBalance returns the balance as a string with 2 decimal places
func (a *Account) FormattedBalance() string {
	return FormatAmount(a.balance)
}

// SetBalance updates the balance directly (for repository hydration only)
func (a *Account) SetBalance(balance int64, timeProvider coreport.TimeProvider) error {
	if balance < 0 {
		return errs.ErrNegativeBalance
	}
	a.balance = balance
	a.UpdatedAt = timeProvider.Now()
	return nil
}

// CanDebit reports whether the account holds at least the given amount
func (a *Account) CanDebit(cents int64) bool {
	return a.balance >= cents
}

// Credit adds the amount to the balance
func (a *Account) Credit(cents int64, timeProvider coreport.TimeProvider) {
	a.balance += cents
	a.UpdatedAt = timeProvider.Now()
}

// Debit subtracts the amount from the balance.
// Returns ErrInsufficientFunds when the balance would go negative.
func (a *Account) Debit(cents int64, timeProvider coreport.TimeProvider) error {
	if a.balance < cents {
		return errs.ErrInsufficientFunds
	}
	a.balance -= cents
	a.UpdatedAt = timeProvider.Now()
	return nil
}

// isValidAccountType validates if the account type is in the allowed set
func isValidAccountType(accountType string) bool {
	return accountType == string(AccountSavings) || accountType == string(AccountCurrent)
}
