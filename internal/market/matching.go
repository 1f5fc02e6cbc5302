package market

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

// ExecuteBuy fills amount units of a listing for the buyer. The whole fill is
// one transaction: the listing row is locked first, then the buyer and seller
// wallets, so concurrent fills against the same listing serialize and a
// failure at any step leaves every balance untouched.
//
// The seller's crypto wallet is not credited or debited here; it was debited
// when the listing was created, and the listing's remaining amount is the
// escrow being spent.
func (s *Service) ExecuteBuy(ctx context.Context, buyerID, listingID uuid.UUID, amount decimal.Decimal) (*models.BuyFill, error) {
	start := time.Now()

	var fill *models.BuyFill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.lockListing(tx, listingID)
		if err != nil {
			return err
		}

		var sellerFiat models.Wallet
		if err := tx.Where("id = ?", listing.SellerFiatWalletID).First(&sellerFiat).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("seller fiat wallet")
			}
			return fmt.Errorf("failed to find seller fiat wallet: %w", err)
		}
		var sellerCrypto models.Wallet
		if err := tx.Where("id = ?", listing.SellerCryptoWalletID).First(&sellerCrypto).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("seller crypto wallet")
			}
			return fmt.Errorf("failed to find seller crypto wallet: %w", err)
		}

		if sellerFiat.UserID == buyerID {
			return errors.SelfTrade()
		}

		if amount.GreaterThan(listing.Remaining) {
			return errors.InsufficientListingAmount()
		}

		// Exact decimal arithmetic, no rounding
		totalCost := listing.Price.Mul(amount)

		var buyerFiat models.Wallet
		if err := tx.Where("user_id = ? AND currency_id = ?", buyerID, sellerFiat.CurrencyID).First(&buyerFiat).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("buyer fiat wallet")
			}
			return fmt.Errorf("failed to find buyer fiat wallet: %w", err)
		}
		if buyerFiat.Balance.LessThan(totalCost) {
			return errors.InsufficientFunds("insufficient fiat balance")
		}

		buyerCrypto, err := s.wallets.GetOrCreate(tx, buyerID, sellerCrypto.CurrencyID)
		if err != nil {
			return err
		}

		// Fiat moves buyer -> seller, crypto moves escrow -> buyer
		if err := s.wallets.ApplyChanges(tx, []wallet.Change{
			{WalletID: buyerFiat.ID, Delta: totalCost.Neg()},
			{WalletID: buyerCrypto.ID, Delta: amount},
			{WalletID: sellerFiat.ID, Delta: totalCost},
		}); err != nil {
			return err
		}

		if err := s.reduce(tx, listing, amount); err != nil {
			return err
		}

		f := models.BuyFill{
			ID:                  uuid.New(),
			BuyerFiatWalletID:   buyerFiat.ID,
			BuyerCryptoWalletID: buyerCrypto.ID,
			ListingID:           listing.ID,
			Price:               listing.Price,
			Amount:              amount,
			BoughtAt:            time.Now(),
		}
		if err := tx.Create(&f).Error; err != nil {
			return fmt.Errorf("failed to create buy fill: %w", err)
		}
		fill = &f
		return nil
	})
	if err != nil {
		var bizErr *errors.Error
		if errors.As(err, &bizErr) {
			metrics.RejectedOperations.WithLabelValues(bizErr.Kind).Inc()
		}
		return nil, err
	}

	metrics.BuysExecuted.Inc()
	metrics.BuyLatency.Observe(time.Since(start).Seconds())
	s.logger.Info("Buy executed",
		zap.String("fill_id", fill.ID.String()),
		zap.String("buyer_id", buyerID.String()),
		zap.String("listing_id", listingID.String()),
		zap.String("amount", amount.String()),
		zap.String("price", fill.Price.String()))

	return fill, nil
}

// ListBuyFills returns all fills with buyer wallet and currency metadata
func (s *Service) ListBuyFills(ctx context.Context) ([]*models.BuyFill, error) {
	var fills []*models.BuyFill
	if err := s.db.WithContext(ctx).
		Preload("BuyerFiatWallet.Currency").
		Preload("BuyerCryptoWallet.Currency").
		Order("bought_at DESC").
		Find(&fills).Error; err != nil {
		return nil, fmt.Errorf("failed to find buy fills: %w", err)
	}
	return fills, nil
}

// GetBuyFill returns one fill with buyer wallet and currency metadata
func (s *Service) GetBuyFill(ctx context.Context, fillID uuid.UUID) (*models.BuyFill, error) {
	var fill models.BuyFill
	if err := s.db.WithContext(ctx).
		Preload("BuyerFiatWallet.Currency").
		Preload("BuyerCryptoWallet.Currency").
		Where("id = ?", fillID).First(&fill).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("buy fill")
		}
		return nil, fmt.Errorf("failed to find buy fill: %w", err)
	}
	return &fill, nil
}
