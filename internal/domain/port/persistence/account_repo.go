package persistence

import (
	"context"

	"github.com/bankapp/ledger-core/internal/domain/entity"
)

// AccountRepository defines methods to interact with account data.
// Mutating methods are only ever called through a unit-of-work-bound
// repository inside a ledger operation's transactional scope.
type AccountRepository interface {
	// Create opens a new account
	//
	// Possible errors:
	// - ErrDuplicateAccount: if an account with the same number already exists
	// - ErrDatabaseConnection: if the store fails
	Create(ctx context.Context, account *entity.Account) error

	// GetByNumber retrieves an account by its number regardless of owner
	//
	// Possible errors:
	// - ErrAccountNotFound: if no account with the number exists
	// - ErrDatabaseConnection: if the store fails
	GetByNumber(ctx context.Context, number string) (*entity.Account, error)

	// GetForOwner retrieves an account scoped to its owning user. It is the
	// ownership check: an account that exists but belongs to another user
	// yields ErrUnauthorized, never a zero-balance sentinel.
	//
	// Possible errors:
	// - ErrAccountNotFound: if no account with the number exists
	// - ErrUnauthorized: if the account belongs to a different user
	// - ErrDatabaseConnection: if the store fails
	GetForOwner(ctx context.Context, userID uint64, number string) (*entity.Account, error)

	// GetForUpdate retrieves an account under a row-level exclusive read
	// (SELECT ... FOR UPDATE). The returned balance is authoritative until
	// the surrounding transactional scope commits or aborts. Must be called
	// inside a unit of work.
	//
	// Possible errors:
	// - ErrAccountNotFound: if no account with the number exists
	// - ErrDatabaseConnection: if the store fails
	GetForUpdate(ctx context.Context, number string) (*entity.Account, error)

	// UpdateBalance writes the account's current balance to the store
	//
	// Possible errors:
	// - ErrAccountNotFound: if the account no longer exists
	// - ErrDatabaseConnection: if the store fails
	UpdateBalance(ctx context.Context, account *entity.Account) error

	// ListByUser returns all accounts owned by the user
	ListByUser(ctx context.Context, userID uint64) ([]*entity.Account, error)
}
