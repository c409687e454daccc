// Payment simulator - UPI transaction ledger with a fraud classifier
// in front of settlement.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samarth3301/payment-simulator/internal/api"
	"github.com/samarth3301/payment-simulator/internal/bus"
	"github.com/samarth3301/payment-simulator/internal/cache"
	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/fraud"
	"github.com/samarth3301/payment-simulator/internal/ledger"
	"github.com/samarth3301/payment-simulator/internal/logging"
	"github.com/samarth3301/payment-simulator/internal/repository"
	"github.com/samarth3301/payment-simulator/internal/screening"
	"github.com/samarth3301/payment-simulator/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg := domain.FromEnv()

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting payment simulator",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"model_path", cfg.Model.ArtifactPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize screening engine and load rules from the database
	screen, err := screening.NewEngine()
	if err != nil {
		slog.Error("failed to initialize screening engine", "error", err)
		os.Exit(1)
	}
	if err := loadRulesFromDatabase(ctx, repo, screen); err != nil {
		slog.Error("failed to load screening rules", "error", err)
		os.Exit(1)
	}
	slog.Info("screening engine initialized", "rules_count", screen.RulesCount())

	// Initialize fraud scorer. A missing model is fine: scoring fails
	// open until an artifact appears at the configured path.
	scorer := fraud.NewService(cfg.Model.ArtifactPath)
	slog.Info("fraud scorer initialized",
		"artifact_path", cfg.Model.ArtifactPath,
		"loaded", scorer.Loaded(),
	)

	// Initialize ledger service
	velocityWindow := time.Duration(cfg.Model.VelocityWindowSecs) * time.Second
	svc := ledger.New(repo, scorer, cacheImpl, busImpl, screen, velocityWindow)

	// Start the async pre-scoring worker
	asyncWorker := worker.NewWorker(busImpl, scorer, cacheImpl)
	if err := asyncWorker.Start(); err != nil {
		slog.Error("failed to start pre-scoring worker", "error", err)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, svc, repo, cacheImpl, screen, scorer, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("payment simulator is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	asyncWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("shutdown complete")
}

// loadRulesFromDatabase loads screening rules into the engine. Rules are
// configured via POST /screening/rules; an empty table is not an error.
func loadRulesFromDatabase(ctx context.Context, repo domain.Repository, engine *screening.Engine) error {
	rules, err := repo.ListScreeningRules(ctx)
	if err != nil {
		slog.Warn("failed to list screening rules", "error", err)
		return nil
	}

	if len(rules) > 0 {
		slog.Info("loading screening rules from database", "count", len(rules))
		return engine.ReloadRules(rules)
	}

	slog.Info("no screening rules in database - configure via POST /screening/rules")
	return nil
}
