package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/infrastructure/config"
	"github.com/splitledger/backend/internal/infrastructure/logger"
	"github.com/splitledger/backend/internal/infrastructure/persistence"
)

// Standalone schema sync. The server runs the same migration on startup;
// this command exists for deployments that migrate before rolling out new
// replicas.
func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
	log.Info("Schema up to date", zap.String("driver", cfg.Database.Driver))
}
