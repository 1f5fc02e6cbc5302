package market

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sappakit/crypto-platform-api/pkg/errors"
	"github.com/sappakit/crypto-platform-api/pkg/models"
)

// Handler provides HTTP handlers for market operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new market handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateListingRequest is the body for opening a sell listing
type CreateListingRequest struct {
	SellerID         uuid.UUID       `json:"seller_id" binding:"required"`
	FiatCurrencyID   uuid.UUID       `json:"fiat_currency_id" binding:"required"`
	CryptoCurrencyID uuid.UUID       `json:"crypto_currency_id" binding:"required"`
	Price            decimal.Decimal `json:"price" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
}

// ExecuteBuyRequest is the body for filling a listing
type ExecuteBuyRequest struct {
	BuyerID   uuid.UUID       `json:"buyer_id" binding:"required"`
	ListingID uuid.UUID       `json:"listing_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// ListingView is the flattened listing projection returned to clients
type ListingView struct {
	ID                   uuid.UUID       `json:"id"`
	SellerID             uuid.UUID       `json:"seller_id"`
	SellerFiatWalletID   uuid.UUID       `json:"seller_fiat_wallet_id"`
	SellerCryptoWalletID uuid.UUID       `json:"seller_crypto_wallet_id"`
	Price                decimal.Decimal `json:"price"`
	Amount               decimal.Decimal `json:"amount"`
	Status               string          `json:"status"`
	FiatCurrencyCode     string          `json:"fiat_currency_code"`
	FiatCurrencyName     string          `json:"fiat_currency_name"`
	CryptoCurrencyCode   string          `json:"crypto_currency_code"`
	CryptoCurrencyName   string          `json:"crypto_currency_name"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// BuyFillView is the flattened fill projection returned to clients
type BuyFillView struct {
	ID                  uuid.UUID       `json:"id"`
	BuyerID             uuid.UUID       `json:"buyer_id"`
	BuyerFiatWalletID   uuid.UUID       `json:"buyer_fiat_wallet_id"`
	BuyerCryptoWalletID uuid.UUID       `json:"buyer_crypto_wallet_id"`
	ListingID           uuid.UUID       `json:"listing_id"`
	Price               decimal.Decimal `json:"price"`
	Amount              decimal.Decimal `json:"amount"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	FiatCurrencyCode    string          `json:"fiat_currency_code"`
	FiatCurrencyName    string          `json:"fiat_currency_name"`
	CryptoCurrencyCode  string          `json:"crypto_currency_code"`
	CryptoCurrencyName  string          `json:"crypto_currency_name"`
	BoughtAt            time.Time       `json:"bought_at"`
}

func listingView(l *models.Listing) ListingView {
	v := ListingView{
		ID:                   l.ID,
		SellerFiatWalletID:   l.SellerFiatWalletID,
		SellerCryptoWalletID: l.SellerCryptoWalletID,
		Price:                l.Price,
		Amount:               l.Remaining,
		Status:               l.Status,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
	if l.SellerFiatWallet != nil {
		v.SellerID = l.SellerFiatWallet.UserID
		if l.SellerFiatWallet.Currency != nil {
			v.FiatCurrencyCode = l.SellerFiatWallet.Currency.Code
			v.FiatCurrencyName = l.SellerFiatWallet.Currency.Name
		}
	}
	if l.SellerCryptoWallet != nil && l.SellerCryptoWallet.Currency != nil {
		v.CryptoCurrencyCode = l.SellerCryptoWallet.Currency.Code
		v.CryptoCurrencyName = l.SellerCryptoWallet.Currency.Name
	}
	return v
}

func buyFillView(f *models.BuyFill) BuyFillView {
	v := BuyFillView{
		ID:                  f.ID,
		BuyerFiatWalletID:   f.BuyerFiatWalletID,
		BuyerCryptoWalletID: f.BuyerCryptoWalletID,
		ListingID:           f.ListingID,
		Price:               f.Price,
		Amount:              f.Amount,
		TotalPrice:          f.Price.Mul(f.Amount),
		BoughtAt:            f.BoughtAt,
	}
	if f.BuyerFiatWallet != nil {
		v.BuyerID = f.BuyerFiatWallet.UserID
		if f.BuyerFiatWallet.Currency != nil {
			v.FiatCurrencyCode = f.BuyerFiatWallet.Currency.Code
			v.FiatCurrencyName = f.BuyerFiatWallet.Currency.Name
		}
	}
	if f.BuyerCryptoWallet != nil && f.BuyerCryptoWallet.Currency != nil {
		v.CryptoCurrencyCode = f.BuyerCryptoWallet.Currency.Code
		v.CryptoCurrencyName = f.BuyerCryptoWallet.Currency.Name
	}
	return v
}

// CreateListingHandler opens a new sell listing
func (h *Handler) CreateListingHandler(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.Price.IsPositive() || !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price and amount must be positive"})
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), req.SellerID, req.FiatCurrencyID, req.CryptoCurrencyID, req.Price, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listing})
}

// ListListingsHandler returns all open listings
func (h *Handler) ListListingsHandler(c *gin.Context) {
	listings, err := h.service.ListOpenListings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]ListingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, listingView(l))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// GetListingHandler returns one listing by ID
func (h *Handler) GetListingHandler(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	listing, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listingView(listing)})
}

// ExecuteBuyHandler fills a listing for the buyer
func (h *Handler) ExecuteBuyHandler(c *gin.Context) {
	var req ExecuteBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	fill, err := h.service.ExecuteBuy(c.Request.Context(), req.BuyerID, req.ListingID, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fill})
}

// ListBuyFillsHandler returns all buy fills
func (h *Handler) ListBuyFillsHandler(c *gin.Context) {
	fills, err := h.service.ListBuyFills(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]BuyFillView, 0, len(fills))
	for _, f := range fills {
		views = append(views, buyFillView(f))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// GetBuyFillHandler returns one buy fill by ID
func (h *Handler) GetBuyFillHandler(c *gin.Context) {
	fillID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid buy fill id"})
		return
	}

	fill, err := h.service.GetBuyFill(c.Request.Context(), fillID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": buyFillView(fill)})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var e *errors.Error
	if errors.As(err, &e) {
		c.JSON(e.HTTPStatus(), gin.H{"error": e.Message})
		return
	}
	h.logger.Error("Market operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
