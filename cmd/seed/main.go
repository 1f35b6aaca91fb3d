package main

import (
	"fmt"
	"os"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/config"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/seed"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	seeder := seed.NewSeeder(database.DB)

	switch command {
	case "dev":
		logger.Log.Info("Seeding development database...")
		if err := seeder.SeedDev(); err != nil {
			logger.Log.Fatal("Seeding failed", zap.Error(err))
		}
		logger.Log.Info("Seeding complete")
	case "clean":
		logger.Log.Info("Removing seed data...")
		if err := seeder.Clean(); err != nil {
			logger.Log.Fatal("Clean failed", zap.Error(err))
		}
		logger.Log.Info("Clean complete")
	default:
		fmt.Println("Usage: seed [dev|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}
