package transfer

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

// Handler provides HTTP handlers for transfer operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new transfer handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CryptoTransferRequest is the body for a crypto transfer. INTERNAL requires
// receiver_wallet_id, EXTERNAL requires external_address.
type CryptoTransferRequest struct {
	SenderWalletID   uuid.UUID       `json:"sender_wallet_id" binding:"required"`
	ReceiverWalletID *uuid.UUID      `json:"receiver_wallet_id"`
	ExternalAddress  *string         `json:"external_address"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Type             string          `json:"transaction_type" binding:"required,oneof=INTERNAL EXTERNAL"`
}

// FiatTransferRequest is the body for a fiat deposit or withdrawal
type FiatTransferRequest struct {
	WalletID      uuid.UUID       `json:"wallet_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Type          string          `json:"transaction_type" binding:"required,oneof=DEPOSIT WITHDRAW"`
	PaymentMethod string          `json:"payment_method"`
}

// CryptoTransferView is the flattened crypto transfer projection
type CryptoTransferView struct {
	ID                   uuid.UUID       `json:"id"`
	SenderWalletID       uuid.UUID       `json:"sender_wallet_id"`
	ReceiverWalletID     *uuid.UUID      `json:"receiver_wallet_id"`
	SenderID             uuid.UUID       `json:"sender_id"`
	ReceiverID           *uuid.UUID      `json:"receiver_id"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 string          `json:"transaction_type"`
	ExternalAddress      *string         `json:"external_address"`
	Status               string          `json:"status"`
	ReceiverCurrencyCode string          `json:"receiver_currency_code,omitempty"`
	ReceiverCurrencyName string          `json:"receiver_currency_name,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// FiatTransferView is the flattened fiat transfer projection
type FiatTransferView struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"transaction_type"`
	PaymentMethod *string         `json:"payment_method"`
	Status        string          `json:"status"`
	CurrencyCode  string          `json:"currency_code"`
	CurrencyName  string          `json:"currency_name"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func cryptoTransferView(t *models.CryptoTransfer) CryptoTransferView {
	v := CryptoTransferView{
		ID:               t.ID,
		SenderWalletID:   t.SenderWalletID,
		ReceiverWalletID: t.ReceiverWalletID,
		Amount:           t.Amount,
		Type:             t.Type,
		ExternalAddress:  t.ExternalAddress,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
	if t.SenderWallet != nil {
		v.SenderID = t.SenderWallet.UserID
	}
	if t.ReceiverWallet != nil {
		receiverID := t.ReceiverWallet.UserID
		v.ReceiverID = &receiverID
		if t.ReceiverWallet.Currency != nil {
			v.ReceiverCurrencyCode = t.ReceiverWallet.Currency.Code
			v.ReceiverCurrencyName = t.ReceiverWallet.Currency.Name
		}
	}
	return v
}

func fiatTransferView(t *models.FiatTransfer) FiatTransferView {
	v := FiatTransferView{
		ID:            t.ID,
		WalletID:      t.WalletID,
		Amount:        t.Amount,
		Type:          t.Type,
		PaymentMethod: t.PaymentMethod,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.Wallet != nil {
		v.UserID = t.Wallet.UserID
		if t.Wallet.Currency != nil {
			v.CurrencyCode = t.Wallet.Currency.Code
			v.CurrencyName = t.Wallet.Currency.Name
		}
	}
	return v
}

// CreateCryptoTransferHandler executes a crypto transfer
func (h *Handler) CreateCryptoTransferHandler(c *gin.Context) {
	var req CryptoTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	var record *models.CryptoTransfer
	var err error
	switch req.Type {
	case models.CryptoTransferInternal:
		if req.ReceiverWalletID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "receiver_wallet_id is required for internal transfers"})
			return
		}
		record, err = h.service.Internal(c.Request.Context(), req.SenderWalletID, *req.ReceiverWalletID, req.Amount)
	case models.CryptoTransferExternal:
		if req.ExternalAddress == nil || *req.ExternalAddress == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "external_address is required for external transfers"})
			return
		}
		record, err = h.service.External(c.Request.Context(), req.SenderWalletID, *req.ExternalAddress, req.Amount)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

// ListCryptoTransfersHandler returns all crypto transfer records
func (h *Handler) ListCryptoTransfersHandler(c *gin.Context) {
	transfers, err := h.service.ListCryptoTransfers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]CryptoTransferView, 0, len(transfers))
	for _, t := range transfers {
		views = append(views, cryptoTransferView(t))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// GetCryptoTransferHandler returns one crypto transfer record
func (h *Handler) GetCryptoTransferHandler(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer id"})
		return
	}

	transfer, err := h.service.GetCryptoTransfer(c.Request.Context(), transferID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cryptoTransferView(transfer)})
}

// CreateFiatTransferHandler executes a fiat deposit or withdrawal
func (h *Handler) CreateFiatTransferHandler(c *gin.Context) {
	var req FiatTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	var record *models.FiatTransfer
	var err error
	switch req.Type {
	case models.FiatTransferDeposit:
		record, err = h.service.Deposit(c.Request.Context(), req.WalletID, req.Amount, req.PaymentMethod)
	case models.FiatTransferWithdraw:
		record, err = h.service.Withdraw(c.Request.Context(), req.WalletID, req.Amount)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

// ListFiatTransfersHandler returns all fiat transfer records
func (h *Handler) ListFiatTransfersHandler(c *gin.Context) {
	transfers, err := h.service.ListFiatTransfers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]FiatTransferView, 0, len(transfers))
	for _, t := range transfers {
		views = append(views, fiatTransferView(t))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// GetFiatTransferHandler returns one fiat transfer record
func (h *Handler) GetFiatTransferHandler(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer id"})
		return
	}

	transfer, err := h.service.GetFiatTransfer(c.Request.Context(), transferID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fiatTransferView(transfer)})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var e *errors.Error
	if errors.As(err, &e) {
		c.JSON(e.HTTPStatus(), gin.H{"error": e.Message})
		return
	}
	h.logger.Error("Transfer operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
