package currency

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Routes configures all currency-related routes
func Routes(router *gin.RouterGroup, service *Service, logger *zap.Logger) {
	handler := NewHandler(service, logger)

	currencyGroup := router.Group("/currencies")
	{
		currencyGroup.GET("", handler.ListCurrenciesHandler)
		currencyGroup.GET("/:id", handler.GetCurrencyHandler)
		currencyGroup.POST("", handler.AddCurrencyHandler)
		currencyGroup.PUT("/:id", handler.UpdateCurrencyHandler)
	}
}
