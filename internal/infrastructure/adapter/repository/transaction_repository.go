package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/domain/port/persistence"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/model"
)

// TransactionRepository implements persistence.TransactionRepository using
// GORM. The transactions table is append-only: this adapter exposes no
// update or delete path.
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Create appends a new transaction record. The store assigns the row ID;
// CreatedAt was assigned by the time provider at construction.
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	m := &model.Transaction{
		ReferenceID: transaction.ReferenceID,
		UserID:      transaction.UserID,
		FromAccount: transaction.FromAccount,
		ToAccount:   transaction.ToAccount,
		Amount:      transaction.AmountCents,
		Kind:        string(transaction.Kind),
		CreatedAt:   transaction.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		r.logger.Error("Failed to append transaction record", map[string]any{
			"reference": transaction.ReferenceID,
			"kind":      string(transaction.Kind),
			"error":     err.Error(),
		})
		return r.errorClassifier.WrapStoreError(err)
	}

	transaction.ID = m.ID
	return nil
}

// ListByUser returns the user's transaction records, newest first,
// narrowed by the filter
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint64, filter persistence.TransactionFilter) ([]*entity.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID)

	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	var ms []model.Transaction
	if err := query.Order("created_at DESC").Find(&ms).Error; err != nil {
		r.logger.Error("Failed to list transactions", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, r.errorClassifier.WrapStoreError(err)
	}

	records := make([]*entity.Transaction, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		records = append(records, &entity.Transaction{
			ID:          m.ID,
			ReferenceID: m.ReferenceID,
			UserID:      m.UserID,
			FromAccount: m.FromAccount,
			ToAccount:   m.ToAccount,
			AmountCents: m.Amount,
			Amount:      entity.FormatAmount(m.Amount),
			Kind:        entity.TransactionKind(m.Kind),
			CreatedAt:   m.CreatedAt,
		})
	}
	return records, nil
}
