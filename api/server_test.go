package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sappakit/crypto-platform-api/internal/currency"
	"github.com/sappakit/crypto-platform-api/internal/database"
	"github.com/sappakit/crypto-platform-api/internal/market"
	"github.com/sappakit/crypto-platform-api/internal/transfer"
	"github.com/sappakit/crypto-platform-api/internal/wallet"
	"github.com/sappakit/crypto-platform-api/pkg/models"
)

func setupServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zaptest.NewLogger(t)
	wallets := wallet.NewService(logger, db)
	server := NewServer(
		logger,
		wallets,
		market.NewService(logger, db, wallets),
		transfer.NewService(logger, db, wallets),
		currency.NewService(logger, db),
	)
	return server, db
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestShutdown(t *testing.T) {
	server, _ := setupServer(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start("127.0.0.1:0")
	}()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	require.ErrorIs(t, <-errCh, http.ErrServerClosed)
}

func TestHealth(t *testing.T) {
	server, _ := setupServer(t)
	rec := doJSON(t, server, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTradeFlow(t *testing.T) {
	server, db := setupServer(t)
	now := time.Now()

	usd := models.Currency{ID: uuid.New(), Type: models.CurrencyTypeFiat, Code: "USD", Name: "US Dollar", CreatedAt: now, UpdatedAt: now}
	btc := models.Currency{ID: uuid.New(), Type: models.CurrencyTypeCrypto, Code: "BTC", Name: "Bitcoin", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&usd).Error)
	require.NoError(t, db.Create(&btc).Error)

	sellerID := uuid.New()
	buyerID := uuid.New()
	sellerBTC := models.Wallet{ID: uuid.New(), UserID: sellerID, CurrencyID: btc.ID, Balance: decimal.NewFromInt(2), CreatedAt: now, UpdatedAt: now}
	buyerUSD := models.Wallet{ID: uuid.New(), UserID: buyerID, CurrencyID: usd.ID, Balance: decimal.NewFromInt(40000), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&sellerBTC).Error)
	require.NoError(t, db.Create(&buyerUSD).Error)

	// Seller lists 1 BTC at 30000
	rec := doJSON(t, server, http.MethodPost, "/api/v1/market/sell", gin.H{
		"seller_id":          sellerID,
		"fiat_currency_id":   usd.ID,
		"crypto_currency_id": btc.ID,
		"price":              30000,
		"amount":             1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var listings []models.Listing
	require.NoError(t, db.Find(&listings).Error)
	require.Len(t, listings, 1)

	// Buyer fills the whole listing
	rec = doJSON(t, server, http.MethodPost, "/api/v1/market/buy", gin.H{
		"buyer_id":   buyerID,
		"listing_id": listings[0].ID,
		"amount":     1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var afterBuyerUSD models.Wallet
	require.NoError(t, db.Where("id = ?", buyerUSD.ID).First(&afterBuyerUSD).Error)
	require.True(t, afterBuyerUSD.Balance.Equal(decimal.NewFromInt(10000)))

	// A second fill against the emptied listing is rejected
	rec = doJSON(t, server, http.MethodPost, "/api/v1/market/buy", gin.H{
		"buyer_id":   buyerID,
		"listing_id": listings[0].ID,
		"amount":     1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Buyer's wallets are visible with currency metadata
	rec = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/users/%s/wallets", buyerID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var walletsResp struct {
		Data []wallet.WalletView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &walletsResp))
	require.Len(t, walletsResp.Data, 2)
}

func TestFiatTransferEndpoint(t *testing.T) {
	server, db := setupServer(t)
	now := time.Now()

	usd := models.Currency{ID: uuid.New(), Type: models.CurrencyTypeFiat, Code: "USD", Name: "US Dollar", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&usd).Error)
	w := models.Wallet{ID: uuid.New(), UserID: uuid.New(), CurrencyID: usd.ID, Balance: decimal.NewFromInt(100), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&w).Error)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions/fiat", gin.H{
		"wallet_id":        w.ID,
		"amount":           500,
		"transaction_type": "DEPOSIT",
		"payment_method":   "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var after models.Wallet
	require.NoError(t, db.Where("id = ?", w.ID).First(&after).Error)
	require.True(t, after.Balance.Equal(decimal.NewFromInt(600)))

	// Withdraw beyond the balance is rejected and leaves no record
	rec = doJSON(t, server, http.MethodPost, "/api/v1/transactions/fiat", gin.H{
		"wallet_id":        w.ID,
		"amount":           10000,
		"transaction_type": "WITHDRAW",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.FiatTransfer{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCurrencyEndpoints(t *testing.T) {
	server, _ := setupServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/currencies", gin.H{
		"currency_type": "CRYPTO",
		"currency_code": "ETH",
		"currency_name": "Ethereum",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/currencies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []models.Currency `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "ETH", resp.Data[0].Code)
}
