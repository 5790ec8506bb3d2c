package model

import (
	"time"
)

// Transaction represents the database model for the append-only
// transaction log. Rows are inserted exactly once and never updated or
// deleted; account references are plain numbers, not foreign keys, so the
// log outlives administrative account removal.
type Transaction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	ReferenceID string    `gorm:"uniqueIndex;not null;size:36"`
	UserID      uint64    `gorm:"not null;index"`
	FromAccount string    `gorm:"size:32;index"`
	ToAccount   string    `gorm:"size:32;index"`
	Amount      int64     `gorm:"not null"` // Amount in hundredths, always positive
	Kind        string    `gorm:"not null;size:20;index"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
