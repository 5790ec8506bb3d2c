package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientFunds = 4001
	CodeInvalidAmount     = 4002
	CodeInvalidUserID     = 4003
	CodeInvalidTransfer   = 4004
	CodeDuplicateAccount  = 4005
	CodeInvalidAccount    = 4006
	CodeAccountNotFound   = 4040
	CodeUnauthorized      = 4030

	// 5xxx - Server errors
	CodeInternalServer = 5000
)

// Base error types
var (
	// ErrInsufficientFunds is returned when the source account balance is
	// lower than the requested amount at the authoritative check
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when the amount is non-positive or malformed
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeAmount is returned when the amount is negative
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrInvalidTransfer is returned when source and destination accounts are the same
	ErrInvalidTransfer = errors.New("source and destination accounts must differ")

	// ErrInvalidUserID is returned when the user ID is not a positive integer
	ErrInvalidUserID = errors.New("user ID must be positive")

	// ErrInvalidAccountNumber is returned when an account number is empty or malformed
	ErrInvalidAccountNumber = errors.New("invalid account number")

	// ErrInvalidAccountType is returned when the account type is not in the allowed set
	ErrInvalidAccountType = errors.New("invalid account type")

	// ErrUnauthorized is returned when the account does not belong to the caller
	ErrUnauthorized = errors.New("account does not belong to caller")

	// ErrAccountNotFound is returned when the requested account doesn't exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount is returned when opening an account with a number that already exists
	ErrDuplicateAccount = errors.New("account number already exists")

	// ErrNegativeBalance is returned when an operation would leave a negative balance
	ErrNegativeBalance = errors.New("balance cannot be negative")

	// ErrDatabaseConnection is returned for any durable-store failure,
	// including partial-commit scenarios that were rolled back
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrTransientStore is returned for store failures that committed
	// nothing and are safe to retry: row-lock contention, serialization
	// failures, dropped connections
	ErrTransientStore = errors.New("transient storage failure")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNegativeAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidTransfer):
		return CodeInvalidTransfer
	case errors.Is(err, ErrInvalidUserID):
		return CodeInvalidUserID
	case errors.Is(err, ErrDuplicateAccount):
		return CodeDuplicateAccount
	case errors.Is(err, ErrInvalidAccountNumber), errors.Is(err, ErrInvalidAccountType):
		return CodeInvalidAccount
	case errors.Is(err, ErrAccountNotFound):
		return CodeAccountNotFound
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	default:
		return CodeInternalServer
	}
}

// InsufficientFundsError provides detailed error information for insufficient funds
type InsufficientFundsError struct {
	AccountNumber string
	Amount        string
	CurrBalance   string
}

// Error implements the error interface
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s: required %s, available %s",
		e.AccountNumber, e.Amount, e.CurrBalance)
}

// Is checks if the target error is an ErrInsufficientFunds
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientFundsError) LogFields() map[string]any {
	return map[string]any{
		"error_type":      "insufficient_funds",
		"account":         e.AccountNumber,
		"amount":          e.Amount,
		"current_balance": e.CurrBalance,
		"error_code":      CodeInsufficientFunds,
	}
}

// NewInsufficientFundsError creates a new detailed insufficient funds error
func NewInsufficientFundsError(accountNumber, amount, currentBalance string) error {
	return &InsufficientFundsError{
		AccountNumber: accountNumber,
		Amount:        amount,
		CurrBalance:   currentBalance,
	}
}

// LedgerError represents an error raised while processing a ledger operation
type LedgerError struct {
	Operation   string
	UserID      uint64
	FromAccount string
	ToAccount   string
	Amount      string
	Err         error
}

// Error implements the error interface for LedgerError
func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s failed for user %d (from: %s, to: %s, amount: %s): %v",
		e.Operation, e.UserID, e.FromAccount, e.ToAccount, e.Amount, e.Err)
}

// Unwrap returns the underlying error
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *LedgerError) LogFields() map[string]any {
	return map[string]any{
		"error_type":   "ledger_error",
		"operation":    e.Operation,
		"user_id":      e.UserID,
		"from_account": e.FromAccount,
		"to_account":   e.ToAccount,
		"amount":       e.Amount,
		"error":        e.Err.Error(),
		"error_code":   ErrorCode(e.Err),
	}
}

// NewLedgerError creates a detailed ledger operation error
func NewLedgerError(operation string, userID uint64, fromAccount, toAccount, amount string, err error) error {
	return &LedgerError{
		Operation:   operation,
		UserID:      userID,
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Err:         err,
	}
}

// IsInsufficientFundsError checks if the error is related to insufficient funds
func IsInsufficientFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsUnauthorizedError checks if the error is an ownership failure
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsAccountNotFoundError checks if the error is an account not found error
func IsAccountNotFoundError(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsValidationError checks if the error is a caller-side validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidTransfer) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidAccountNumber) ||
		errors.Is(err, ErrInvalidAccountType)
}

// IsPersistenceError checks if the error is a durable-store failure
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrDatabaseConnection) || errors.Is(err, ErrTransientStore)
}

// IsTransientStoreError checks if the error is a store failure that is
// safe to retry
func IsTransientStoreError(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
