package main

import (
	"context"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"stockpulse/logging"
	"stockpulse/pkg/config"
	"stockpulse/pkg/database"
	"stockpulse/pkg/pipeline"
	"stockpulse/pkg/scraper"
	"stockpulse/pkg/storage"
)

// One invocation performs exactly one collection run; scheduling is
// left to cron or an external orchestrator. Exit code 0 means at least
// one symbol produced data and the batch was stored.
func main() {
	viper.AutomaticEnv()
	cfg := config.LoadConfig()

	logger := logging.SetupLogger(cfg.LogFile)
	defer logger.Sync()

	logger.Info("Starting stock data pipeline",
		zap.String("source", string(cfg.DataSource)),
		zap.String("fallback", string(cfg.FallbackSource)),
		zap.Strings("symbols", cfg.Symbols))

	ctx := context.Background()

	db, err := database.NewDB(cfg, logger)
	if err != nil {
		logger.Error("Database connection failed", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("Database migration failed", zap.Error(err))
		os.Exit(1)
	}

	pipe := pipeline.New(
		scraper.NewScraper(cfg, logger),
		storage.NewPriceRepository(db, logger),
		logger,
	)

	if !pipe.Run(ctx) {
		os.Exit(1)
	}
}
