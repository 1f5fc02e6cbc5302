package wallet

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

// Handler provides HTTP handlers for wallet operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new wallet handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateWalletRequest is the body for explicit wallet creation
type CreateWalletRequest struct {
	CurrencyID uuid.UUID       `json:"currency_id" binding:"required"`
	Balance    decimal.Decimal `json:"balance"`
}

// UpdateWalletRequest is the body for an administrative balance update
type UpdateWalletRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

// WalletView is the flattened wallet projection returned to clients
type WalletView struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Balance      decimal.Decimal `json:"balance"`
	CurrencyCode string          `json:"currency_code"`
	CurrencyName string          `json:"currency_name"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func walletView(w *models.Wallet) WalletView {
	v := WalletView{
		ID:        w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	if w.Currency != nil {
		v.CurrencyCode = w.Currency.Code
		v.CurrencyName = w.Currency.Name
	}
	return v
}

// ListWalletsHandler returns all wallets owned by a user
func (h *Handler) ListWalletsHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	wallets, err := h.service.GetWallets(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]WalletView, 0, len(wallets))
	for _, w := range wallets {
		views = append(views, walletView(w))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// GetWalletHandler returns a user's wallet for one currency
func (h *Handler) GetWalletHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	currencyID, err := uuid.Parse(c.Param("currencyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid currency id"})
		return
	}

	w, err := h.service.GetWallet(c.Request.Context(), userID, currencyID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": walletView(w)})
}

// CreateWalletHandler explicitly creates a wallet for a user
func (h *Handler) CreateWalletHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Balance.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "balance must not be negative"})
		return
	}

	w, err := h.service.CreateWallet(c.Request.Context(), userID, req.CurrencyID, req.Balance)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": w})
}

// UpdateWalletHandler replaces a wallet balance (administrative)
func (h *Handler) UpdateWalletHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	currencyID, err := uuid.Parse(c.Param("currencyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid currency id"})
		return
	}

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Balance.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "balance must not be negative"})
		return
	}

	w, err := h.service.SetBalance(c.Request.Context(), userID, currencyID, req.Balance)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": w})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var e *errors.Error
	if errors.As(err, &e) {
		c.JSON(e.HTTPStatus(), gin.H{"error": e.Message})
		return
	}
	h.logger.Error("Wallet operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
