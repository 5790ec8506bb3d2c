package repository

import (
	"fmt"
	"strings"

	errs "github.com/bankapp/ledger-core/internal/domain/error"
)

// ErrorClassifier sorts raw driver errors into the buckets the
// repositories map onto the domain taxonomy. GORM surfaces postgres
// failures as text, so classification matches on message content.
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// IsDuplicateKeyError reports whether the error is a unique-constraint
// violation, such as opening an account under a number already taken
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// IsContentionError reports whether the error is a store-level locking
// failure: a deadlock, a lock timeout on a row read for update, or a
// serialization failure. Nothing was committed and the row is intact.
func (c *ErrorClassifier) IsContentionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "lock not available") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "serialization failure")
}

// IsTransientError reports whether the error is a connection-level fault
// that a later attempt may not hit
func (c *ErrorClassifier) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "server closed") ||
		strings.Contains(msg, "broken pipe")
}

// IsRetryable reports whether the failed operation is safe to reissue:
// the statement lost a store-level lock race or the connection dropped,
// and no partial mutation can have committed
func (c *ErrorClassifier) IsRetryable(err error) bool {
	return c.IsContentionError(err) || c.IsTransientError(err)
}

// WrapStoreError attaches the domain sentinel matching the failure class:
// retryable faults wrap ErrTransientStore, everything else wraps
// ErrDatabaseConnection. Callers handle not-found and duplicate-key cases
// before reaching here.
func (c *ErrorClassifier) WrapStoreError(err error) error {
	if c.IsRetryable(err) {
		return fmt.Errorf("%w: %s", errs.ErrTransientStore, err.Error())
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}
