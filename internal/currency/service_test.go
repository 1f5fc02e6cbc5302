package currency

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/internal/database"
	"github.com/sappakit/crypto-platform-api/pkg/errors"
	"github.com/sappakit/crypto-platform-api/pkg/models"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewService(zaptest.NewLogger(t), db)
}

func TestAddAndGet(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	usd, err := svc.Add(ctx, models.CurrencyTypeFiat, "USD", "US Dollar")
	require.NoError(t, err)
	require.Equal(t, models.CurrencyTypeFiat, usd.Type)

	got, err := svc.Get(ctx, usd.ID)
	require.NoError(t, err)
	require.Equal(t, "USD", got.Code)

	_, err = svc.Get(ctx, uuid.New())
	require.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestList(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, models.CurrencyTypeFiat, "USD", "US Dollar")
	require.NoError(t, err)
	_, err = svc.Add(ctx, models.CurrencyTypeCrypto, "BTC", "Bitcoin")
	require.NoError(t, err)

	currencies, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, currencies, 2)
	// Ordered by code
	require.Equal(t, "BTC", currencies[0].Code)
	require.Equal(t, "USD", currencies[1].Code)
}

func TestUpdate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	usd, err := svc.Add(ctx, models.CurrencyTypeFiat, "USD", "US Dollar")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, usd.ID, models.CurrencyTypeFiat, "USD", "United States Dollar")
	require.NoError(t, err)
	require.Equal(t, "United States Dollar", updated.Name)

	_, err = svc.Update(ctx, uuid.New(), models.CurrencyTypeFiat, "EUR", "Euro")
	require.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestAddRejectsInvalidCurrency(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, models.CurrencyTypeFiat, "X", "Too Short")
	require.True(t, errors.IsKind(err, errors.KindValidation))

	_, err = svc.Add(ctx, "COMMODITY", "GLD", "Gold")
	require.True(t, errors.IsKind(err, errors.KindValidation))

	currencies, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, currencies)
}
