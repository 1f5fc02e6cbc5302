package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sappakit/crypto-platform-api/api"
	"github.com/sappakit/crypto-platform-api/internal/config"
	"github.com/sappakit/crypto-platform-api/internal/currency"
	"github.com/sappakit/crypto-platform-api/internal/database"
	"github.com/sappakit/crypto-platform-api/internal/market"
	"github.com/sappakit/crypto-platform-api/internal/transfer"
	"github.com/sappakit/crypto-platform-api/internal/wallet"
	"github.com/sappakit/crypto-platform-api/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Connect to PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	// Migrate schema
	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Seed development data when requested
	if cfg.Seed {
		if err := database.Seed(db); err != nil {
			zapLogger.Fatal("Failed to seed database", zap.Error(err))
		}
		zapLogger.Info("Database seeded")
	}

	// Create services
	walletSvc := wallet.NewService(zapLogger, db)
	marketSvc := market.NewService(zapLogger, db, walletSvc)
	transferSvc := transfer.NewService(zapLogger, db, walletSvc)
	currencySvc := currency.NewService(zapLogger, db)

	// Create and start server
	server := api.NewServer(zapLogger, walletSvc, marketSvc, transferSvc, currencySvc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Addr)
	}()

	// Wait for a shutdown signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zapLogger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		zapLogger.Fatal("Server stopped", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Error("Server stopped", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}
