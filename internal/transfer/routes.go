package transfer

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Routes configures all transfer-related routes
func Routes(router *gin.RouterGroup, service *Service, logger *zap.Logger) {
	handler := NewHandler(service, logger)

	transactionGroup := router.Group("/transactions")
	{
		transactionGroup.GET("/crypto", handler.ListCryptoTransfersHandler)
		transactionGroup.GET("/crypto/:id", handler.GetCryptoTransferHandler)
		transactionGroup.POST("/crypto", handler.CreateCryptoTransferHandler)

		transactionGroup.GET("/fiat", handler.ListFiatTransfersHandler)
		transactionGroup.GET("/fiat/:id", handler.GetFiatTransferHandler)
		transactionGroup.POST("/fiat", handler.CreateFiatTransferHandler)
	}
}
