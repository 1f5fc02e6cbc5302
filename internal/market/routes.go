package market

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Routes configures all market-related routes
func Routes(router *gin.RouterGroup, service *Service, logger *zap.Logger) {
	handler := NewHandler(service, logger)

	marketGroup := router.Group("/market")
	{
		marketGroup.GET("/sell", handler.ListListingsHandler)
		marketGroup.GET("/sell/:id", handler.GetListingHandler)
		marketGroup.POST("/sell", handler.CreateListingHandler)

		marketGroup.GET("/buy", handler.ListBuyFillsHandler)
		marketGroup.GET("/buy/:id", handler.GetBuyFillHandler)
		marketGroup.POST("/buy", handler.ExecuteBuyHandler)
	}
}
