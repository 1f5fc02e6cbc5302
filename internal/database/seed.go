package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/pkg/models"
)

// Seed populates an empty database with two users, a fiat and a crypto
// currency, their wallets and one open listing. Used for local development.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()

	user1 := models.User{ID: uuid.New(), Username: "johndoe", Email: "johndoe@gmail.com", Name: "John Doe", CreatedAt: now, UpdatedAt: now}
	user2 := models.User{ID: uuid.New(), Username: "emily", Email: "emily_wilson@yahoo.com", Name: "Emily Wilson", CreatedAt: now, UpdatedAt: now}

	usd := models.Currency{ID: uuid.New(), Type: models.CurrencyTypeFiat, Code: "USD", Name: "US Dollar", CreatedAt: now, UpdatedAt: now}
	btc := models.Currency{ID: uuid.New(), Type: models.CurrencyTypeCrypto, Code: "BTC", Name: "Bitcoin", CreatedAt: now, UpdatedAt: now}

	user1Fiat := models.Wallet{ID: uuid.New(), UserID: user1.ID, CurrencyID: usd.ID, Balance: decimal.NewFromInt(1000), CreatedAt: now, UpdatedAt: now}
	user1Crypto := models.Wallet{ID: uuid.New(), UserID: user1.ID, CurrencyID: btc.ID, Balance: decimal.NewFromInt(2), CreatedAt: now, UpdatedAt: now}
	user2Fiat := models.Wallet{ID: uuid.New(), UserID: user2.ID, CurrencyID: usd.ID, Balance: decimal.NewFromInt(500), CreatedAt: now, UpdatedAt: now}
	user2Crypto := models.Wallet{ID: uuid.New(), UserID: user2.ID, CurrencyID: btc.ID, Balance: decimal.NewFromInt(1), CreatedAt: now, UpdatedAt: now}

	// The seeded listing escrows 1 BTC from user1's crypto wallet
	user1Crypto.Balance = user1Crypto.Balance.Sub(decimal.NewFromInt(1))
	listing := models.Listing{
		ID:                   uuid.New(),
		SellerFiatWalletID:   user1Fiat.ID,
		SellerCryptoWalletID: user1Crypto.ID,
		Price:                decimal.NewFromInt(30000),
		Remaining:            decimal.NewFromInt(1),
		Status:               models.ListingStatusOpen,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, record := range []interface{}{
			&user1, &user2, &usd, &btc,
			&user1Fiat, &user1Crypto, &user2Fiat, &user2Crypto,
			&listing,
		} {
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
		}
		return nil
	})
}
