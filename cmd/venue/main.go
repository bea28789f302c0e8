// ====================================
// File: cmd/venue/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/launchlab/curvevenue/internal/config"
	"github.com/launchlab/curvevenue/internal/logger"
	"github.com/launchlab/curvevenue/internal/venue"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := "configs/config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAge:      cfg.LogMaxAgeDays,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to build logger", zap.Error(err))
	}
	defer log.Sync()
	log.Info("Starting bonding curve venue")

	admin, err := solana.PublicKeyFromBase58(cfg.AdminKey)
	if err != nil {
		log.Fatal("Invalid admin key", zap.Error(err))
	}

	v, err := venue.New(cfg, log.Logger)
	if err != nil {
		log.Fatal("Failed to build venue", zap.Error(err))
	}
	if err := v.InitIfNeeded(admin); err != nil {
		log.Fatal("Failed to initialize global config", zap.Error(err))
	}

	if err := v.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Venue execution error", zap.Error(err))
	}
	log.Info("Venue stopped")
}
