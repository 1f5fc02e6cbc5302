package currency

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sappakit/crypto-platform-api/pkg/errors"
)

// Handler provides HTTP handlers for currency operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new currency handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CurrencyRequest is the body for adding or updating a currency
type CurrencyRequest struct {
	Type string `json:"currency_type" binding:"required,oneof=FIAT CRYPTO"`
	Code string `json:"currency_code" binding:"required,min=2,max=10"`
	Name string `json:"currency_name" binding:"required"`
}

// ListCurrenciesHandler returns all currencies
func (h *Handler) ListCurrenciesHandler(c *gin.Context) {
	currencies, err := h.service.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": currencies})
}

// GetCurrencyHandler returns one currency by ID
func (h *Handler) GetCurrencyHandler(c *gin.Context) {
	currencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid currency id"})
		return
	}

	currency, err := h.service.Get(c.Request.Context(), currencyID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": currency})
}

// AddCurrencyHandler registers a new currency
func (h *Handler) AddCurrencyHandler(c *gin.Context) {
	var req CurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	currency, err := h.service.Add(c.Request.Context(), req.Type, req.Code, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": currency})
}

// UpdateCurrencyHandler modifies an existing currency
func (h *Handler) UpdateCurrencyHandler(c *gin.Context) {
	currencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid currency id"})
		return
	}

	var req CurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	currency, err := h.service.Update(c.Request.Context(), currencyID, req.Type, req.Code, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": currency})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var e *errors.Error
	if errors.As(err, &e) {
		c.JSON(e.HTTPStatus(), gin.H{"error": e.Message})
		return
	}
	h.logger.Error("Currency operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
