package persistence

import (
	"context"
)

// UnitOfWork coordinates a durable transactional scope across the account
// store and the transaction log so that balance updates and log appends
// become visible together or not at all.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context.
	// Rolling back an already finished transaction is a no-op.
	Rollback(ctx context.Context) error

	// Accounts returns an account repository bound to the current transaction
	Accounts(ctx context.Context) AccountRepository

	// Transactions returns a transaction-log repository bound to the current transaction
	Transactions(ctx context.Context) TransactionRepository
}
