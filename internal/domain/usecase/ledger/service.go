package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	errs "github.com/bankapp/ledger-core/internal/domain/error"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/domain/port/notification"
	"github.com/bankapp/ledger-core/internal/domain/port/persistence"
)

// DefaultEventTimeout bounds a single fire-and-forget event publish
const DefaultEventTimeout = 5 * time.Second

// Result is the outcome of a successful ledger mutation
type Result struct {
	Transaction *entity.Transaction
	NewBalance  string // Balance of the caller's account after commit
}

// Service orchestrates deposits, withdrawals and transfers. Every mutation
// runs under two locking layers: the in-process LockCoordinator serializing
// same-process callers, and the store's row-level read-for-update guarding
// against writers in other processes. Balance update and transaction-log
// append always commit as one durable unit.
type Service struct {
	uow          persistence.UnitOfWork
	locks        *LockCoordinator
	sink         notification.Sink
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	eventTimeout time.Duration
	eventWG      sync.WaitGroup
}

// NewService creates a ledger service. sink may be nil when event
// publishing is disabled.
func NewService(
	uow persistence.UnitOfWork,
	locks *LockCoordinator,
	sink notification.Sink,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	if locks == nil {
		panic("ledger: lock coordinator cannot be nil")
	}
	return &Service{
		uow:          uow,
		locks:        locks,
		sink:         sink,
		timeProvider: timeProvider,
		logger:       logger,
		eventTimeout: DefaultEventTimeout,
	}
}

// WithEventTimeout overrides the per-publish timeout
func (s *Service) WithEventTimeout(d time.Duration) *Service {
	s.eventTimeout = d
	return s
}

// Balance returns the caller's account. The outcome is discriminated: an
// account that does not exist yields ErrAccountNotFound and an account
// owned by someone else yields ErrUnauthorized. A zero balance is a valid
// result, never a sentinel.
func (s *Service) Balance(ctx context.Context, userID uint64, accountNumber string) (*entity.Account, error) {
	return s.uow.Accounts(ctx).GetForOwner(ctx, userID, accountNumber)
}

// History returns the caller's transaction records, newest first. The
// filter backs the read-only feed pulled by reporting and export
// collaborators; nothing here mutates the log.
func (s *Service) History(ctx context.Context, userID uint64, filter persistence.TransactionFilter) ([]*entity.Transaction, error) {
	return s.uow.Transactions(ctx).ListByUser(ctx, userID, filter)
}

// Shutdown waits for in-flight event publishes to drain
func (s *Service) Shutdown() {
	s.eventWG.Wait()
}

// publishEvent sends a post-commit balance event without blocking the
// operation that produced it. Publish failures are logged and dropped;
// they never roll back or fail the committed mutation.
func (s *Service) publishEvent(kind notification.EventKind, userID uint64, account, counterparty string, amountCents, balanceCents int64) {
	if s.sink == nil {
		return
	}

	event := notification.BalanceEvent{
		EventID:          uuid.New().String(),
		Kind:             kind,
		UserID:           userID,
		Account:          account,
		Counterparty:     counterparty,
		Amount:           entity.AmountToDecimal(amountCents),
		ResultingBalance: entity.AmountToDecimal(balanceCents),
		OccurredAt:       s.timeProvider.Now(),
	}

	s.eventWG.Add(1)
	go func() {
		defer s.eventWG.Done()

		ctx, cancel := s.timeProvider.WithTimeout(context.Background(), s.eventTimeout)
		defer cancel()

		if err := s.sink.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish balance event", map[string]any{
				"event_id": event.EventID,
				"kind":     string(kind),
				"account":  account,
				"error":    err.Error(),
			})
		}
	}()
}

// persistenceFailure reports a failure to open or commit the durable
// scope. The error carries the full operation context so the caller and
// the log both see which mutation was lost; it unwraps to
// ErrDatabaseConnection for taxonomy checks.
func (s *Service) persistenceFailure(operation string, userID uint64, fromAccount, toAccount, amount string, err error) error {
	lerr := &errs.LedgerError{
		Operation:   operation,
		UserID:      userID,
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Err:         fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error()),
	}
	s.logger.Error("Ledger operation failed", lerr.LogFields())
	return lerr
}

// rollback aborts the durable scope, tolerating scopes that already
// finished via commit
func (s *Service) rollback(txCtx context.Context) {
	if err := s.uow.Rollback(txCtx); err != nil {
		s.logger.Error("Failed to roll back transactional scope", map[string]any{
			"error": err.Error(),
		})
	}
}
