// Package main runs the hivemint service: an HTTP API that mints beehive
// investment tokens on the ledger, pins their metadata to content-addressed
// storage and transfers ownership on purchase. A background reconciler
// completes purchases whose transfer failed mid-flight.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hivemint/internal/config"
	"hivemint/internal/ledger"
	"hivemint/internal/pinning"
	"hivemint/internal/server"
	"hivemint/internal/storage"
	filestore "hivemint/internal/storage/file"
	"hivemint/internal/storage/memory"
	"hivemint/internal/storage/migrations"
	pgstore "hivemint/internal/storage/postgres"
	"hivemint/internal/workflow"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of the configured backend")
	reconcileInterval := flag.Duration("reconcile-interval", 1*time.Minute, "Pending-transfer reconciliation interval")
	seedPath := flag.String("seed", "", "JSON file of hive records to seed into the store")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create hive store
	hives, cleanup, err := createStore(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create hive store: %v", err)
	}
	defer cleanup()

	if *seedPath != "" {
		n, err := seedStore(ctx, hives, *seedPath)
		if err != nil {
			logger.Fatalf("Failed to seed hive store: %v", err)
		}
		logger.Printf("Seeded %d hive records from %s", n, *seedPath)
	}

	// Create ledger client and metadata publisher
	ledgerClient := ledger.NewHTTPClient(cfg.LedgerEndpoint, cfg.OperatorID, cfg.OperatorKey)
	publisher := pinning.NewHTTPPublisher(cfg.PinningEndpoint, cfg.PinningToken,
		log.New(os.Stdout, "[pinning] ", log.LstdFlags|log.Lshortfile))

	// Create workflow service
	svc := workflow.New(workflow.Options{
		Ledger:     ledgerClient,
		Publisher:  publisher,
		Hives:      hives,
		OperatorID: cfg.OperatorID,
		Logger:     log.New(os.Stdout, "[workflow] ", log.LstdFlags|log.Lshortfile),
	})

	// Create HTTP server
	api := server.New(server.Options{
		Workflow:        svc,
		Environment:     cfg.Environment,
		ExplorerBaseURL: cfg.ExplorerBaseURL,
		AllowedOrigins:  cfg.AllowedOrigins,
		Logger:          logger,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.Handler(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Forced shutdown: %v", err)
		}
	}()

	// Start reconciler in background
	go runReconciler(ctx, svc, *reconcileInterval, logger)

	logger.Printf("Listening on :%d (environment: %s)", cfg.Port, cfg.Environment)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStore selects the hive store backend: in-memory, postgres when a DSN
// is configured, otherwise the flat JSON file.
func createStore(ctx context.Context, cfg *config.Config, useMemory bool) (storage.HiveStore, func(), error) {
	if useMemory {
		return memory.NewHiveStore(), func() {}, nil
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return pgstore.NewHiveStore(pool), pool.Close, nil
	}

	store, err := filestore.NewHiveStore(cfg.HiveStorePath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// seedStore loads hive records from a JSON file into the store.
func seedStore(ctx context.Context, hives storage.HiveStore, path string) (int, error) {
	records, err := filestore.ReadSeedFile(path)
	if err != nil {
		return 0, err
	}
	for _, h := range records {
		if err := hives.Put(ctx, h); err != nil {
			return 0, fmt.Errorf("seed hive %s: %w", h.ID, err)
		}
	}
	return len(records), nil
}

// runReconciler retries pending transfers on a fixed interval.
func runReconciler(ctx context.Context, svc *workflow.Service, interval time.Duration, logger *log.Logger) {
	logger.Printf("Starting reconciler (interval: %v)...", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := svc.Reconcile(ctx)
			if err != nil {
				logger.Printf("Reconciler error: %v", err)
				continue
			}
			if result.Completed > 0 || result.Pending > 0 {
				logger.Printf("Reconciler pass: %d completed, %d still pending", result.Completed, result.Pending)
			}
		}
	}
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
