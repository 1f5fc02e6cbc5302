// Package market owns sell listings and the engine that matches buys against
// them. A listing escrows its crypto from the seller's wallet at creation, so
// the remaining amount on the listing is the escrow still for sale.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/internal/database"
	"github.com/sappakit/crypto-platform-api/internal/wallet"
	"github.com/sappakit/crypto-platform-api/pkg/errors"
	"github.com/sappakit/crypto-platform-api/pkg/metrics"
	"github.com/sappakit/crypto-platform-api/pkg/models"
)

// Service implements the listing book and the matching engine
type Service struct {
	logger  *zap.Logger
	db      *gorm.DB
	wallets *wallet.Service
}

// NewService creates a new market service
func NewService(logger *zap.Logger, db *gorm.DB, wallets *wallet.Service) *Service {
	return &Service{
		logger:  logger,
		db:      db,
		wallets: wallets,
	}
}

// CreateListing opens a sell listing for the seller's crypto wallet. The
// listed amount is debited from the wallet immediately (escrow); the seller's
// fiat wallet is created lazily when absent.
func (s *Service) CreateListing(ctx context.Context, sellerID, fiatCurrencyID, cryptoCurrencyID uuid.UUID, price, amount decimal.Decimal) (*models.Listing, error) {
	var created *models.Listing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cryptoWallet, err := s.wallets.FindForUpdate(tx, sellerID, cryptoCurrencyID)
		if err != nil {
			if errors.IsKind(err, errors.KindNotFound) {
				return errors.NotFound("crypto wallet")
			}
			return err
		}

		// One open listing per crypto wallet
		var count int64
		if err := tx.Model(&models.Listing{}).
			Where("seller_crypto_wallet_id = ? AND status = ?", cryptoWallet.ID, models.ListingStatusOpen).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check listing: %w", err)
		}
		if count > 0 {
			return errors.DuplicateListing()
		}

		fiatWallet, err := s.wallets.GetOrCreate(tx, sellerID, fiatCurrencyID)
		if err != nil {
			return err
		}

		// Escrow the listed amount now, not at fill time
		if err := s.wallets.Debit(tx, cryptoWallet, amount); err != nil {
			return err
		}

		now := time.Now()
		listing := models.Listing{
			ID:                   uuid.New(),
			SellerFiatWalletID:   fiatWallet.ID,
			SellerCryptoWalletID: cryptoWallet.ID,
			Price:                price,
			Remaining:            amount,
			Status:               models.ListingStatusOpen,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := tx.Create(&listing).Error; err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}
		created = &listing
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ListingsCreated.Inc()
	s.logger.Info("Listing created",
		zap.String("listing_id", created.ID.String()),
		zap.String("seller_id", sellerID.String()),
		zap.String("price", price.String()),
		zap.String("amount", amount.String()))

	return created, nil
}

// GetListing returns a listing with its seller wallets and currency metadata
func (s *Service) GetListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.WithContext(ctx).
		Preload("SellerFiatWallet.Currency").
		Preload("SellerCryptoWallet.Currency").
		Where("id = ?", listingID).First(&listing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("listing")
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listing, nil
}

// ListOpenListings returns all listings still open for fills
func (s *Service) ListOpenListings(ctx context.Context) ([]*models.Listing, error) {
	var listings []*models.Listing
	if err := s.db.WithContext(ctx).
		Preload("SellerFiatWallet.Currency").
		Preload("SellerCryptoWallet.Currency").
		Where("status = ?", models.ListingStatusOpen).
		Order("created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	return listings, nil
}

// lockListing loads a listing by ID and locks its row. Every fill locks the
// listing first, which serializes overlapping buys against it.
func (s *Service) lockListing(tx *gorm.DB, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := database.LockForUpdate(tx).Where("id = ?", listingID).First(&listing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("listing")
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listing, nil
}

// reduce decrements the listing's remaining amount. The amount was already
// validated by the matching engine; the re-check here must never trip.
func (s *Service) reduce(tx *gorm.DB, listing *models.Listing, amount decimal.Decimal) error {
	if amount.GreaterThan(listing.Remaining) {
		return errors.InsufficientListingAmount()
	}
	listing.Remaining = listing.Remaining.Sub(amount)
	if listing.Remaining.IsZero() {
		listing.Status = models.ListingStatusFilled
	}
	listing.UpdatedAt = time.Now()
	if err := tx.Save(listing).Error; err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}
