package migration

import (
	"gorm.io/gorm"

	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/model"
)

// Manager applies the ledger schema
type Manager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewManager creates a new migration manager
func NewManager(db *gorm.DB, logger coreport.Logger) *Manager {
	return &Manager{
		db:     db,
		logger: logger,
	}
}

// MigrateAll creates or updates the accounts and transactions tables and
// their supporting indexes
func (m *Manager) MigrateAll() error {
	m.logger.Info("Starting database migrations", nil)

	if err := m.db.AutoMigrate(&model.Account{}, &model.Transaction{}); err != nil {
		m.logger.Error("Failed to auto-migrate models", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if err := m.createIndexes(); err != nil {
		m.logger.Error("Failed to create indexes", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	m.logger.Info("Database migrations completed", nil)
	return nil
}

// createIndexes adds composite indexes the model tags cannot express
func (m *Manager) createIndexes() error {
	statements := []string{
		// Ownership-scoped lookups hit (user_id, number) on every mutation
		`CREATE INDEX IF NOT EXISTS idx_accounts_user_number ON accounts (user_id, number)`,
		// History queries filter by user and sort by time
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_kind ON transactions (user_id, kind)`,
	}

	for _, stmt := range statements {
		if err := m.db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
