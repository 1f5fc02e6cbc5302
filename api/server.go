// Package api assembles the HTTP server and registers all routes
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sappakit/crypto-platform-api/internal/currency"
	"github.com/sappakit/crypto-platform-api/internal/market"
	"github.com/sappakit/crypto-platform-api/internal/transfer"
	"github.com/sappakit/crypto-platform-api/internal/wallet"
)

// Server represents the API server
type Server struct {
	router *gin.Engine
	logger *zap.Logger
	http   *http.Server
}

// NewServer creates a new API server with injected services
func NewServer(
	logger *zap.Logger,
	wallets *wallet.Service,
	markets *market.Service,
	transfers *transfer.Service,
	currencies *currency.Service,
) *Server {
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/metrics", gin.WrapH(promhttp.Handler()))
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		market.Routes(v1, markets, logger)
		transfer.Routes(v1, transfers, logger)
		wallet.Routes(v1, wallets, logger)
		currency.Routes(v1, currencies, logger)
	}

	return &Server{
		router: router,
		logger: logger,
		http: &http.Server{
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// Start serves the API on addr. It blocks until the listener fails or
// Shutdown is called, in which case it returns http.ErrServerClosed.
func (s *Server) Start(addr string) error {
	s.http.Addr = addr
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.http.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight requests
// until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.http.Shutdown(ctx)
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}
