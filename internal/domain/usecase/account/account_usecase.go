package account

import (
	"context"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/domain/port/persistence"
)

// UseCase handles account opening and read-only account queries.
// Balance mutation is never done here; that is the ledger service's job.
type UseCase struct {
	accountRepo  persistence.AccountRepository
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewUseCase creates a new account use case
func NewUseCase(
	accountRepo persistence.AccountRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *UseCase {
	return &UseCase{
		accountRepo:  accountRepo,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Open creates a new account for the user with the given number, type and
// opening balance
func (u *UseCase) Open(ctx context.Context, userID uint64, number, accountType, openingBalance string) (*entity.Account, error) {
	acct, err := entity.NewAccount(userID, number, accountType, openingBalance, u.timeProvider)
	if err != nil {
		return nil, err
	}

	if err := u.accountRepo.Create(ctx, acct); err != nil {
		u.logger.Error("Failed to open account", map[string]any{
			"user_id": userID,
			"account": number,
			"error":   err.Error(),
		})
		return nil, err
	}

	u.logger.Info("Account opened", map[string]any{
		"user_id":         userID,
		"account":         acct.Number,
		"type":            string(acct.Type),
		"opening_balance": acct.FormattedBalance(),
	})

	return acct, nil
}

// List returns all accounts owned by the user
func (u *UseCase) List(ctx context.Context, userID uint64) ([]*entity.Account, error) {
	return u.accountRepo.ListByUser(ctx, userID)
}
