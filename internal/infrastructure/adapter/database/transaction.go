package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/domain/port/persistence"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/repository"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

// UnitOfWork implements the unit-of-work pattern over a GORM transaction.
// The balance write and the transaction-log append of a ledger operation
// run against the same transactional context, so they commit or abort as
// one durable unit.
type UnitOfWork struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) persistence.UnitOfWork {
	return &UnitOfWork{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// Begin starts a new database transaction and stores it in the returned context
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.logger.Debug("Beginning database transaction", nil)

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		return ctx, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the current transaction
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	u.logger.Debug("Committing database transaction", nil)
	if err := tx.Commit().Error; err != nil {
		u.logger.Error("Failed to commit transaction", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback rolls back the current transaction. Rolling back a scope that
// already committed (or rolled back) is a no-op, which lets callers keep a
// single deferred rollback on every exit path.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	err := tx.Rollback().Error
	if err == nil {
		return nil
	}

	if isFinishedTxError(err) {
		return nil
	}

	u.logger.Error("Failed to rollback transaction", map[string]any{
		"error": err.Error(),
	})
	return fmt.Errorf("failed to rollback transaction: %w", err)
}

// Accounts returns an account repository bound to the current transaction
func (u *UnitOfWork) Accounts(ctx context.Context) persistence.AccountRepository {
	return repository.NewAccountRepository(u.dbFromContext(ctx), u.timeProvider, u.logger)
}

// Transactions returns a transaction-log repository bound to the current transaction
func (u *UnitOfWork) Transactions(ctx context.Context) persistence.TransactionRepository {
	return repository.NewTransactionRepository(u.dbFromContext(ctx), u.logger)
}

// dbFromContext retrieves the transactional handle, falling back to the
// base connection for reads outside any scope
func (u *UnitOfWork) dbFromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok && tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}

// isFinishedTxError reports whether the error means the transaction was
// already committed or rolled back
func isFinishedTxError(err error) bool {
	return strings.Contains(err.Error(), "already been committed or rolled back") ||
		strings.Contains(err.Error(), "transaction has already been committed") ||
		strings.Contains(err.Error(), "invalid transaction")
}
