package model

import (
	"time"
)

// Account represents the database model for accounts
type Account struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	Number    string    `gorm:"uniqueIndex;not null;size:32"`
	Type      string    `gorm:"not null;size:20"`
	Balance   int64     `gorm:"not null;check:balance >= 0"` // Balance in hundredths
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}
