package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	errs "github.com/bankapp/ledger-core/internal/domain/error"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/model"
)

// AccountRepository implements persistence.AccountRepository using GORM
type AccountRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *AccountRepository {
	return &AccountRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// modelToEntity converts an account model to a domain entity
func (r *AccountRepository) modelToEntity(m *model.Account) (*entity.Account, error) {
	acct, err := entity.NewAccount(m.UserID, m.Number, m.Type, entity.FormatAmount(m.Balance), r.timeProvider)
	if err != nil {
		r.logger.Error("Failed to hydrate account entity", map[string]any{
			"account": m.Number,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: failed to hydrate account: %s", errs.ErrInternalServer, err.Error())
	}

	acct.ID = m.ID
	acct.CreatedAt = m.CreatedAt
	acct.UpdatedAt = m.UpdatedAt
	return acct, nil
}

// handleDatabaseError standardizes database error handling
func (r *AccountRepository) handleDatabaseError(operation string, err error, number string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Warn("Account not found", map[string]any{
			"account":   number,
			"operation": operation,
		})
		return errs.ErrAccountNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"account": number,
		"error":   err.Error(),
	})

	if r.errorClassifier.IsDuplicateKeyError(err) {
		return errs.ErrDuplicateAccount
	}

	return r.errorClassifier.WrapStoreError(err)
}

// Create opens a new account
func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	m := &model.Account{
		UserID:    account.UserID,
		Number:    account.Number,
		Type:      string(account.Type),
		Balance:   account.Balance(),
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return r.handleDatabaseError("creating account", err, account.Number)
	}

	account.ID = m.ID
	return nil
}

// GetByNumber retrieves an account by number regardless of owner
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*entity.Account, error) {
	var m model.Account
	result := r.db.WithContext(ctx).Where("number = ?", number).First(&m)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting account", result.Error, number)
	}
	return r.modelToEntity(&m)
}

// GetForOwner retrieves an account scoped to its owning user. A number
// that exists under a different owner is reported as ErrUnauthorized,
// distinct from ErrAccountNotFound, so a zero balance never doubles as a
// failure sentinel.
func (r *AccountRepository) GetForOwner(ctx context.Context, userID uint64, number string) (*entity.Account, error) {
	var m model.Account
	result := r.db.WithContext(ctx).Where("user_id = ? AND number = ?", userID, number).First(&m)
	if result.Error == nil {
		return r.modelToEntity(&m)
	}

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		// Distinguish missing account from foreign ownership
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Account{}).Where("number = ?", number).Count(&count).Error; err != nil {
			return nil, r.handleDatabaseError("checking account existence", err, number)
		}
		if count > 0 {
			r.logger.Warn("Ownership check failed", map[string]any{
				"user_id": userID,
				"account": number,
			})
			return nil, errs.ErrUnauthorized
		}
		return nil, errs.ErrAccountNotFound
	}

	return nil, r.handleDatabaseError("getting account for owner", result.Error, number)
}

// GetForUpdate retrieves an account under a row-level exclusive read.
// Must run inside a transactional scope; the lock is held until that scope
// commits or aborts.
func (r *AccountRepository) GetForUpdate(ctx context.Context, number string) (*entity.Account, error) {
	var m model.Account
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("number = ?", number).
		First(&m)
	if result.Error != nil {
		return nil, r.handleDatabaseError("locking account row", result.Error, number)
	}
	return r.modelToEntity(&m)
}

// UpdateBalance writes the account's balance
func (r *AccountRepository) UpdateBalance(ctx context.Context, account *entity.Account) error {
	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("number = ?", account.Number).
		Updates(map[string]interface{}{
			"balance":    account.Balance(),
			"updated_at": account.UpdatedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating balance", result.Error, account.Number)
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("Account disappeared during balance update", map[string]any{
			"account": account.Number,
		})
		return errs.ErrAccountNotFound
	}

	return nil
}

// ListByUser returns all accounts owned by the user
func (r *AccountRepository) ListByUser(ctx context.Context, userID uint64) ([]*entity.Account, error) {
	var ms []model.Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("number").Find(&ms).Error; err != nil {
		return nil, r.errorClassifier.WrapStoreError(err)
	}

	accounts := make([]*entity.Account, 0, len(ms))
	for i := range ms {
		acct, err := r.modelToEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}
