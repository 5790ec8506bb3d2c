package persistence

import (
	"context"
	"time"

	"github.com/bankapp/ledger-core/internal/domain/entity"
)

// TransactionFilter narrows a transaction history query. Zero values mean
// "no constraint". It backs the read-only feed consumed by reporting and
// export collaborators.
type TransactionFilter struct {
	Kind      entity.TransactionKind
	From      *time.Time
	To        *time.Time
	MinAmount *int64 // hundredths
	MaxAmount *int64 // hundredths
}

// TransactionRepository defines methods to interact with the append-only
// transaction log. Records are immutable once written; there is no update
// or delete.
type TransactionRepository interface {
	// Create appends a new transaction record
	//
	// Possible errors:
	// - ErrDatabaseConnection: if the store fails
	Create(ctx context.Context, transaction *entity.Transaction) error

	// ListByUser returns transaction records for the user, newest first,
	// optionally narrowed by the filter
	//
	// Possible errors:
	// - ErrDatabaseConnection: if the store fails
	ListByUser(ctx context.Context, userID uint64, filter TransactionFilter) ([]*entity.Transaction, error)
}
