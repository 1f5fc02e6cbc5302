// Package wallet owns per-user per-currency balances. All balance mutations
// go through this service, inside a transaction supplied by the caller.
package wallet

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/internal/database"
	"github.com/sappakit/crypto-platform-api/pkg/errors"
	"github.com/sappakit/crypto-platform-api/pkg/models"
	"github.com/sappakit/crypto-platform-api/pkg/validation"
)

// Service implements the wallet store
type Service struct {
	logger *zap.Logger
	db     *gorm.DB
}

// NewService creates a new wallet service
func NewService(logger *zap.Logger, db *gorm.DB) *Service {
	return &Service{
		logger: logger,
		db:     db,
	}
}

// GetForUpdate loads a wallet by ID and locks its row for the duration of tx
func (s *Service) GetForUpdate(tx *gorm.DB, walletID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := database.LockForUpdate(tx).Where("id = ?", walletID).First(&w).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("wallet")
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return &w, nil
}

// FindForUpdate loads a wallet by (user, currency) and locks its row
func (s *Service) FindForUpdate(tx *gorm.DB, userID, currencyID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := database.LockForUpdate(tx).Where("user_id = ? AND currency_id = ?", userID, currencyID).First(&w).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("wallet")
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return &w, nil
}

// GetOrCreate returns the wallet for (user, currency), creating it with a
// zero balance when absent. The row is not locked: callers that go on to
// mutate it do so through ApplyChanges, which must be the only place
// multi-wallet locks are taken so its ordering holds.
func (s *Service) GetOrCreate(tx *gorm.DB, userID, currencyID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Where("user_id = ? AND currency_id = ?", userID, currencyID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	now := time.Now()
	w = models.Wallet{
		ID:         uuid.New(),
		UserID:     userID,
		CurrencyID: currencyID,
		Balance:    decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.Create(&w).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &w, nil
}

// Debit subtracts amount from the wallet balance. The wallet must already be
// locked by the caller's transaction.
func (s *Service) Debit(tx *gorm.DB, w *models.Wallet, amount decimal.Decimal) error {
	if w.Balance.LessThan(amount) {
		return errors.InsufficientFunds("insufficient balance")
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now()
	if err := tx.Save(w).Error; err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

// Credit adds amount to the wallet balance. The wallet must already be locked
// by the caller's transaction.
func (s *Service) Credit(tx *gorm.DB, w *models.Wallet, amount decimal.Decimal) error {
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now()
	if err := tx.Save(w).Error; err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

// Change is a signed balance delta to apply to one wallet
type Change struct {
	WalletID uuid.UUID
	Delta    decimal.Decimal
}

// ApplyChanges locks the affected wallet rows in ascending ID order and
// applies each delta. A debit that would take a balance negative fails with
// InsufficientFunds and rolls the caller's transaction back. Locking in a
// fixed order keeps concurrent multi-wallet operations deadlock free.
func (s *Service) ApplyChanges(tx *gorm.DB, changes []Change) error {
	ordered := make([]Change, len(changes))
	copy(ordered, changes)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].WalletID[:], ordered[j].WalletID[:]) < 0
	})

	for _, c := range ordered {
		w, err := s.GetForUpdate(tx, c.WalletID)
		if err != nil {
			return err
		}
		if c.Delta.IsNegative() {
			if err := s.Debit(tx, w, c.Delta.Neg()); err != nil {
				return err
			}
		} else {
			if err := s.Credit(tx, w, c.Delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetWallets returns all wallets for a user with currency metadata
func (s *Service) GetWallets(ctx context.Context, userID uuid.UUID) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	if err := s.db.WithContext(ctx).Preload("Currency").Where("user_id = ?", userID).Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to find wallets: %w", err)
	}
	return wallets, nil
}

// GetWallet returns the user's wallet for a currency with currency metadata
func (s *Service) GetWallet(ctx context.Context, userID, currencyID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := s.db.WithContext(ctx).Preload("Currency").Where("user_id = ? AND currency_id = ?", userID, currencyID).First(&w).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("wallet")
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return &w, nil
}

// CreateWallet explicitly creates a wallet with an initial balance. The
// currency must exist and the user must not already hold one for it.
func (s *Service) CreateWallet(ctx context.Context, userID, currencyID uuid.UUID, balance decimal.Decimal) (*models.Wallet, error) {
	var created *models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currency models.Currency
		if err := tx.Where("id = ?", currencyID).First(&currency).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("currency")
			}
			return fmt.Errorf("failed to find currency: %w", err)
		}

		var count int64
		if err := tx.Model(&models.Wallet{}).Where("user_id = ? AND currency_id = ?", userID, currencyID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check wallet: %w", err)
		}
		if count > 0 {
			return errors.DuplicateWallet()
		}

		now := time.Now()
		w := models.Wallet{
			ID:         uuid.New(),
			UserID:     userID,
			CurrencyID: currencyID,
			Balance:    balance,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := validation.Struct(&w); err != nil {
			return errors.Validation(err.Error())
		}
		if err := tx.Create(&w).Error; err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		created = &w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Wallet created",
		zap.String("wallet_id", created.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("currency_id", currencyID.String()))

	return created, nil
}

// SetBalance replaces a wallet balance (administrative operation)
func (s *Service) SetBalance(ctx context.Context, userID, currencyID uuid.UUID, balance decimal.Decimal) (*models.Wallet, error) {
	var updated *models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.FindForUpdate(tx, userID, currencyID)
		if err != nil {
			return err
		}
		w.Balance = balance
		w.UpdatedAt = time.Now()
		if err := tx.Save(w).Error; err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Wallet balance updated",
		zap.String("wallet_id", updated.ID.String()),
		zap.String("balance", balance.String()))

	return updated, nil
}
