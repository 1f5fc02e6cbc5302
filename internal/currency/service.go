// Package currency manages the registry of fiat and crypto currencies
package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/pkg/errors"
	"github.com/sappakit/crypto-platform-api/pkg/models"
	"github.com/sappakit/crypto-platform-api/pkg/validation"
)

// Service implements currency registry operations
type Service struct {
	logger *zap.Logger
	db     *gorm.DB
}

// NewService creates a new currency service
func NewService(logger *zap.Logger, db *gorm.DB) *Service {
	return &Service{
		logger: logger,
		db:     db,
	}
}

// List returns all currencies
func (s *Service) List(ctx context.Context) ([]*models.Currency, error) {
	var currencies []*models.Currency
	if err := s.db.WithContext(ctx).Order("code").Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("failed to find currencies: %w", err)
	}
	return currencies, nil
}

// Get returns a currency by ID
func (s *Service) Get(ctx context.Context, currencyID uuid.UUID) (*models.Currency, error) {
	var currency models.Currency
	if err := s.db.WithContext(ctx).Where("id = ?", currencyID).First(&currency).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("currency")
		}
		return nil, fmt.Errorf("failed to find currency: %w", err)
	}
	return &currency, nil
}

// Add registers a new currency
func (s *Service) Add(ctx context.Context, currencyType, code, name string) (*models.Currency, error) {
	now := time.Now()
	currency := models.Currency{
		ID:        uuid.New(),
		Type:      currencyType,
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validation.Struct(&currency); err != nil {
		return nil, errors.Validation(err.Error())
	}
	if err := s.db.WithContext(ctx).Create(&currency).Error; err != nil {
		return nil, fmt.Errorf("failed to create currency: %w", err)
	}

	s.logger.Info("Currency added",
		zap.String("currency_id", currency.ID.String()),
		zap.String("code", code),
		zap.String("type", currencyType))

	return &currency, nil
}

// Update modifies an existing currency
func (s *Service) Update(ctx context.Context, currencyID uuid.UUID, currencyType, code, name string) (*models.Currency, error) {
	var updated *models.Currency
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currency models.Currency
		if err := tx.Where("id = ?", currencyID).First(&currency).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("currency")
			}
			return fmt.Errorf("failed to find currency: %w", err)
		}

		currency.Type = currencyType
		currency.Code = code
		currency.Name = name
		currency.UpdatedAt = time.Now()
		if err := validation.Struct(&currency); err != nil {
			return errors.Validation(err.Error())
		}
		if err := tx.Save(&currency).Error; err != nil {
			return fmt.Errorf("failed to save currency: %w", err)
		}
		updated = &currency
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
