// Package transfer executes crypto transfers between wallets or to external
// addresses, and fiat deposits/withdrawals, appending an immutable record for
// each completed movement.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/internal/wallet"
	"github.com/sappakit/crypto-platform-api/pkg/errors"
	"github.com/sappakit/crypto-platform-api/pkg/metrics"
	"github.com/sappakit/crypto-platform-api/pkg/models"
)

// Service implements the transfer engine
type Service struct {
	logger  *zap.Logger
	db      *gorm.DB
	wallets *wallet.Service
}

// NewService creates a new transfer service
func NewService(logger *zap.Logger, db *gorm.DB, wallets *wallet.Service) *Service {
	return &Service{
		logger:  logger,
		db:      db,
		wallets: wallets,
	}
}

// Internal moves crypto between two wallets holding the same currency. Debit
// and credit happen in one transaction; the record is appended inside it.
// The precondition reads take no row locks: ApplyChanges locks both wallets
// in ascending ID order and its debit re-checks funds on the locked row, so
// opposing transfers cannot deadlock on a reversed lock order.
func (s *Service) Internal(ctx context.Context, senderWalletID, receiverWalletID uuid.UUID, amount decimal.Decimal) (*models.CryptoTransfer, error) {
	var created *models.CryptoTransfer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sender models.Wallet
		if err := tx.Where("id = ?", senderWalletID).First(&sender).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("sender wallet")
			}
			return fmt.Errorf("failed to find sender wallet: %w", err)
		}
		var receiver models.Wallet
		if err := tx.Where("id = ?", receiverWalletID).First(&receiver).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("receiver wallet")
			}
			return fmt.Errorf("failed to find receiver wallet: %w", err)
		}

		if sender.CurrencyID != receiver.CurrencyID {
			return errors.CurrencyMismatch()
		}
		if sender.Balance.LessThan(amount) {
			return errors.InsufficientFunds("insufficient balance")
		}

		if err := s.wallets.ApplyChanges(tx, []wallet.Change{
			{WalletID: senderWalletID, Delta: amount.Neg()},
			{WalletID: receiverWalletID, Delta: amount},
		}); err != nil {
			return err
		}

		now := time.Now()
		record := models.CryptoTransfer{
			ID:               uuid.New(),
			SenderWalletID:   senderWalletID,
			ReceiverWalletID: &receiverWalletID,
			Amount:           amount,
			Type:             models.CryptoTransferInternal,
			Status:           models.TransferStatusCompleted,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create crypto transfer: %w", err)
		}
		created = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CryptoTransfers.WithLabelValues(models.CryptoTransferInternal).Inc()
	s.logger.Info("Internal crypto transfer completed",
		zap.String("transfer_id", created.ID.String()),
		zap.String("sender_wallet_id", senderWalletID.String()),
		zap.String("receiver_wallet_id", receiverWalletID.String()),
		zap.String("amount", amount.String()))

	return created, nil
}

// External sends crypto to an address outside the platform. Only the sender
// wallet is debited; the record carries the address and no receiver wallet.
func (s *Service) External(ctx context.Context, senderWalletID uuid.UUID, address string, amount decimal.Decimal) (*models.CryptoTransfer, error) {
	var created *models.CryptoTransfer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sender, err := s.wallets.GetForUpdate(tx, senderWalletID)
		if err != nil {
			if errors.IsKind(err, errors.KindNotFound) {
				return errors.NotFound("sender wallet")
			}
			return err
		}

		if err := s.wallets.Debit(tx, sender, amount); err != nil {
			return err
		}

		now := time.Now()
		record := models.CryptoTransfer{
			ID:              uuid.New(),
			SenderWalletID:  senderWalletID,
			ExternalAddress: &address,
			Amount:          amount,
			Type:            models.CryptoTransferExternal,
			Status:          models.TransferStatusCompleted,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create crypto transfer: %w", err)
		}
		created = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CryptoTransfers.WithLabelValues(models.CryptoTransferExternal).Inc()
	s.logger.Info("External crypto transfer completed",
		zap.String("transfer_id", created.ID.String()),
		zap.String("sender_wallet_id", senderWalletID.String()),
		zap.String("address", address),
		zap.String("amount", amount.String()))

	return created, nil
}

// Deposit credits a fiat wallet and records the payment method used
func (s *Service) Deposit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, paymentMethod string) (*models.FiatTransfer, error) {
	var created *models.FiatTransfer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.lockFiatWallet(tx, walletID)
		if err != nil {
			return err
		}

		if err := s.wallets.Credit(tx, w, amount); err != nil {
			return err
		}

		now := time.Now()
		record := models.FiatTransfer{
			ID:            uuid.New(),
			WalletID:      walletID,
			Amount:        amount,
			Type:          models.FiatTransferDeposit,
			PaymentMethod: &paymentMethod,
			Status:        models.TransferStatusCompleted,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create fiat transfer: %w", err)
		}
		created = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.FiatTransfers.WithLabelValues(models.FiatTransferDeposit).Inc()
	s.logger.Info("Fiat deposit completed",
		zap.String("transfer_id", created.ID.String()),
		zap.String("wallet_id", walletID.String()),
		zap.String("amount", amount.String()))

	return created, nil
}

// Withdraw debits a fiat wallet. No record is written when the balance is
// insufficient.
func (s *Service) Withdraw(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*models.FiatTransfer, error) {
	var created *models.FiatTransfer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.lockFiatWallet(tx, walletID)
		if err != nil {
			return err
		}

		if err := s.wallets.Debit(tx, w, amount); err != nil {
			return err
		}

		now := time.Now()
		record := models.FiatTransfer{
			ID:        uuid.New(),
			WalletID:  walletID,
			Amount:    amount,
			Type:      models.FiatTransferWithdraw,
			Status:    models.TransferStatusCompleted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create fiat transfer: %w", err)
		}
		created = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.FiatTransfers.WithLabelValues(models.FiatTransferWithdraw).Inc()
	s.logger.Info("Fiat withdrawal completed",
		zap.String("transfer_id", created.ID.String()),
		zap.String("wallet_id", walletID.String()),
		zap.String("amount", amount.String()))

	return created, nil
}

// lockFiatWallet locks a wallet row and verifies its currency kind is FIAT.
// Deposits and withdrawals both require a fiat wallet.
func (s *Service) lockFiatWallet(tx *gorm.DB, walletID uuid.UUID) (*models.Wallet, error) {
	w, err := s.wallets.GetForUpdate(tx, walletID)
	if err != nil {
		return nil, err
	}

	var currency models.Currency
	if err := tx.Where("id = ?", w.CurrencyID).First(&currency).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("currency")
		}
		return nil, fmt.Errorf("failed to find currency: %w", err)
	}
	if currency.Type != models.CurrencyTypeFiat {
		return nil, errors.InvalidCurrencyType("only wallets holding fiat currency are allowed")
	}
	return w, nil
}

// ListCryptoTransfers returns all crypto transfer records with wallet and
// currency metadata
func (s *Service) ListCryptoTransfers(ctx context.Context) ([]*models.CryptoTransfer, error) {
	var transfers []*models.CryptoTransfer
	if err := s.db.WithContext(ctx).
		Preload("SenderWallet").
		Preload("ReceiverWallet.Currency").
		Order("created_at DESC").
		Find(&transfers).Error; err != nil {
		return nil, fmt.Errorf("failed to find crypto transfers: %w", err)
	}
	return transfers, nil
}

// GetCryptoTransfer returns one crypto transfer record
func (s *Service) GetCryptoTransfer(ctx context.Context, transferID uuid.UUID) (*models.CryptoTransfer, error) {
	var transfer models.CryptoTransfer
	if err := s.db.WithContext(ctx).
		Preload("SenderWallet").
		Preload("ReceiverWallet.Currency").
		Where("id = ?", transferID).First(&transfer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("crypto transfer")
		}
		return nil, fmt.Errorf("failed to find crypto transfer: %w", err)
	}
	return &transfer, nil
}

// ListFiatTransfers returns all fiat transfer records with wallet and
// currency metadata
func (s *Service) ListFiatTransfers(ctx context.Context) ([]*models.FiatTransfer, error) {
	var transfers []*models.FiatTransfer
	if err := s.db.WithContext(ctx).
		Preload("Wallet.Currency").
		Order("created_at DESC").
		Find(&transfers).Error; err != nil {
		return nil, fmt.Errorf("failed to find fiat transfers: %w", err)
	}
	return transfers, nil
}

// GetFiatTransfer returns one fiat transfer record
func (s *Service) GetFiatTransfer(ctx context.Context, transferID uuid.UUID) (*models.FiatTransfer, error) {
	var transfer models.FiatTransfer
	if err := s.db.WithContext(ctx).
		Preload("Wallet.Currency").
		Where("id = ?", transferID).First(&transfer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("fiat transfer")
		}
		return nil, fmt.Errorf("failed to find fiat transfer: %w", err)
	}
	return &transfer, nil
}
