package main

import (
	"context"   // context package is needed for Redis operations
	"errors"    // Server shutdown inspection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"personal_finance/internal/api"     // Custom package for API handlers
	"personal_finance/internal/config"  // Custom package for configuration
	"personal_finance/internal/db"      // Custom package for the database
	"personal_finance/internal/ledger"  // Ledger engine
	"personal_finance/internal/seed"    // Demo data
	"personal_finance/internal/summary" // Aggregation engine
	"personal_finance/internal/utils"   // Cache and tokens

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

// summaryTTL bounds how long a cached summary may be served
const summaryTTL = 60 * time.Second

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// Refuse to start with a weak secret or an incomplete database setup
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if cfg.DBDriver == "sqlite" {
		// A local file database is migrated on startup; mysql uses cmd/migrate
		if err := db.Migrate(gdb); err != nil {
			logrus.Fatalf("failed to migrate: %v", err)
		}
	}

	// Setup Redis client when configured
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Info("REDIS_ADDR not set, summary caching disabled")
	}
	cache := utils.NewCache(rdb, summaryTTL)
	ledgerEngine := ledger.New(gdb, cache)
	if cfg.SeedData {
		if err := seed.Run(context.Background(), gdb, ledgerEngine); err != nil {
			logrus.Fatalf("seeding failed: %v", err)
		}
	}

	decimal.MarshalJSONWithoutQuotes = true // Money as JSON numbers

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.NewRouter(api.Deps{
		DB:             gdb,
		Ledger:         ledgerEngine,
		Summary:        summary.New(gdb, cache),
		Cache:          cache,
		Tokens:         utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiresMinutes, cfg.JWTRefreshDays),
		DebugErrors:    cfg.DebugErrors,
		TrustedProxies: []string{"127.0.0.1"},
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for an interrupt, then drain in-flight requests
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logrus.Info("Server stopped")
}
