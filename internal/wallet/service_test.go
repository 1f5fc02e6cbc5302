package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/internal/database"
	"github.com/sappakit/crypto-platform-api/pkg/errors"
	"github.com/sappakit/crypto-platform-api/pkg/models"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewService(zaptest.NewLogger(t), db), db
}

func createCurrency(t *testing.T, db *gorm.DB, currencyType, code string) *models.Currency {
	t.Helper()
	now := time.Now()
	c := &models.Currency{ID: uuid.New(), Type: currencyType, Code: code, Name: code, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(c).Error)
	return c
}

func createWallet(t *testing.T, db *gorm.DB, userID, currencyID uuid.UUID, balance decimal.Decimal) *models.Wallet {
	t.Helper()
	now := time.Now()
	w := &models.Wallet{ID: uuid.New(), UserID: userID, CurrencyID: currencyID, Balance: balance, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(w).Error)
	return w
}

func TestGetOrCreate(t *testing.T) {
	svc, db := setupTestService(t)
	userID := uuid.New()
	usd := createCurrency(t, db, models.CurrencyTypeFiat, "USD")

	var first, second *models.Wallet
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = svc.GetOrCreate(tx, userID, usd.ID)
		return err
	}))
	require.True(t, first.Balance.IsZero())

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = svc.GetOrCreate(tx, userID, usd.ID)
		return err
	}))
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Wallet{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDebitInsufficientFunds(t *testing.T) {
	svc, db := setupTestService(t)
	usd := createCurrency(t, db, models.CurrencyTypeFiat, "USD")
	w := createWallet(t, db, uuid.New(), usd.ID, decimal.NewFromInt(50))

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := svc.GetForUpdate(tx, w.ID)
		if err != nil {
			return err
		}
		return svc.Debit(tx, locked, decimal.NewFromInt(51))
	})
	require.True(t, errors.IsKind(err, errors.KindInsufficientFunds))

	var after models.Wallet
	require.NoError(t, db.Where("id = ?", w.ID).First(&after).Error)
	require.True(t, after.Balance.Equal(decimal.NewFromInt(50)))
}

func TestDebitCredit(t *testing.T) {
	svc, db := setupTestService(t)
	usd := createCurrency(t, db, models.CurrencyTypeFiat, "USD")
	w := createWallet(t, db, uuid.New(), usd.ID, decimal.NewFromInt(100))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		locked, err := svc.GetForUpdate(tx, w.ID)
		if err != nil {
			return err
		}
		if err := svc.Debit(tx, locked, decimal.NewFromInt(40)); err != nil {
			return err
		}
		return svc.Credit(tx, locked, decimal.NewFromInt(15))
	}))

	var after models.Wallet
	require.NoError(t, db.Where("id = ?", w.ID).First(&after).Error)
	require.True(t, after.Balance.Equal(decimal.NewFromInt(75)))
}

func TestApplyChangesConservation(t *testing.T) {
	svc, db := setupTestService(t)
	btc := createCurrency(t, db, models.CurrencyTypeCrypto, "BTC")
	a := createWallet(t, db, uuid.New(), btc.ID, decimal.NewFromInt(3))
	b := createWallet(t, db, uuid.New(), btc.ID, decimal.NewFromInt(1))

	amount := decimal.RequireFromString("0.25")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.ApplyChanges(tx, []Change{
			{WalletID: a.ID, Delta: amount.Neg()},
			{WalletID: b.ID, Delta: amount},
		})
	}))

	var afterA, afterB models.Wallet
	require.NoError(t, db.Where("id = ?", a.ID).First(&afterA).Error)
	require.NoError(t, db.Where("id = ?", b.ID).First(&afterB).Error)
	require.True(t, afterA.Balance.Equal(decimal.RequireFromString("2.75")))
	require.True(t, afterB.Balance.Equal(decimal.RequireFromString("1.25")))
	require.True(t, afterA.Balance.Add(afterB.Balance).Equal(decimal.NewFromInt(4)))
}

func TestApplyChangesRollsBackOnFailure(t *testing.T) {
	svc, db := setupTestService(t)
	btc := createCurrency(t, db, models.CurrencyTypeCrypto, "BTC")
	a := createWallet(t, db, uuid.New(), btc.ID, decimal.NewFromInt(1))
	b := createWallet(t, db, uuid.New(), btc.ID, decimal.NewFromInt(1))

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.ApplyChanges(tx, []Change{
			{WalletID: a.ID, Delta: decimal.NewFromInt(10)},
			{WalletID: b.ID, Delta: decimal.NewFromInt(-5)},
		})
	})
	require.True(t, errors.IsKind(err, errors.KindInsufficientFunds))

	// The credit must not survive the failed debit
	var afterA, afterB models.Wallet
	require.NoError(t, db.Where("id = ?", a.ID).First(&afterA).Error)
	require.NoError(t, db.Where("id = ?", b.ID).First(&afterB).Error)
	require.True(t, afterA.Balance.Equal(decimal.NewFromInt(1)))
	require.True(t, afterB.Balance.Equal(decimal.NewFromInt(1)))
}

func TestCreateWallet(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	usd := createCurrency(t, db, models.CurrencyTypeFiat, "USD")
	userID := uuid.New()

	w, err := svc.CreateWallet(ctx, userID, usd.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.True(t, w.Balance.Equal(decimal.NewFromInt(10)))

	_, err = svc.CreateWallet(ctx, userID, usd.ID, decimal.Zero)
	require.True(t, errors.IsKind(err, errors.KindDuplicateWallet))

	_, err = svc.CreateWallet(ctx, userID, uuid.New(), decimal.Zero)
	require.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestSetBalance(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	usd := createCurrency(t, db, models.CurrencyTypeFiat, "USD")
	userID := uuid.New()
	createWallet(t, db, userID, usd.ID, decimal.NewFromInt(10))

	w, err := svc.SetBalance(ctx, userID, usd.ID, decimal.NewFromInt(250))
	require.NoError(t, err)
	require.True(t, w.Balance.Equal(decimal.NewFromInt(250)))

	_, err = svc.SetBalance(ctx, uuid.New(), usd.ID, decimal.NewFromInt(1))
	require.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestGetWallets(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	usd := createCurrency(t, db, models.CurrencyTypeFiat, "USD")
	btc := createCurrency(t, db, models.CurrencyTypeCrypto, "BTC")
	userID := uuid.New()
	createWallet(t, db, userID, usd.ID, decimal.NewFromInt(100))
	createWallet(t, db, userID, btc.ID, decimal.NewFromInt(2))
	createWallet(t, db, uuid.New(), usd.ID, decimal.NewFromInt(7))

	wallets, err := svc.GetWallets(ctx, userID)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	for _, w := range wallets {
		require.NotNil(t, w.Currency)
	}

	w, err := svc.GetWallet(ctx, userID, btc.ID)
	require.NoError(t, err)
	require.Equal(t, "BTC", w.Currency.Code)

	_, err = svc.GetWallet(ctx, userID, uuid.New())
	require.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestCreateWalletRejectsNegativeBalance(t *testing.T) {
	svc, db := setupTestService(t)
	usd := createCurrency(t, db, models.CurrencyTypeFiat, "USD")

	_, err := svc.CreateWallet(context.Background(), uuid.New(), usd.ID, decimal.NewFromInt(-1))
	require.True(t, errors.IsKind(err, errors.KindValidation))

	var count int64
	require.NoError(t, db.Model(&models.Wallet{}).Count(&count).Error)
	require.Zero(t, count)
}
