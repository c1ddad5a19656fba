package main

import (
	"context" // Seeding context

	"personal_finance/internal/config" // Custom import path (Config)
	"personal_finance/internal/db"     // Custom import path (Database)
	"personal_finance/internal/ledger" // Ledger engine
	"personal_finance/internal/seed"   // Demo data

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	if cfg.SeedData {
		if err := seed.Run(context.Background(), gdb, ledger.New(gdb, nil)); err != nil {
			logrus.Fatalf("seeding failed: %v", err)
		}
	}
}
