package wallet

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Routes configures all wallet-related routes
func Routes(router *gin.RouterGroup, service *Service, logger *zap.Logger) {
	handler := NewHandler(service, logger)

	userGroup := router.Group("/users/:id/wallets")
	{
		userGroup.GET("", handler.ListWalletsHandler)
		userGroup.GET("/:currencyId", handler.GetWalletHandler)
		userGroup.POST("", handler.CreateWalletHandler)
		userGroup.PUT("/:currencyId", handler.UpdateWalletHandler)
	}
}
