// Package database provides database setup and transaction utilities
package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sappakit/crypto-platform-api/pkg/models"
)

// Migrate creates or updates the schema for all platform models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Currency{},
		&models.Wallet{},
		&models.Listing{},
		&models.BuyFill{},
		&models.CryptoTransfer{},
		&models.FiatTransfer{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// LockForUpdate adds a SELECT ... FOR UPDATE clause on dialects that support
// row locks. SQLite permits a single writer at a time, so the clause is not
// needed (and not valid syntax) there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
