package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/config"
	"github.com/rickgao/market-sync/internal/database"
	"github.com/rickgao/market-sync/internal/dome"
	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/normalize"
	"github.com/rickgao/market-sync/internal/store"
	marketsync "github.com/rickgao/market-sync/internal/sync"
	"github.com/rickgao/market-sync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/syncer.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting syncer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"dome_url", cfg.Dome.BaseURL,
		"exchanges", cfg.Exchanges,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Optional Redis read-through cache
	storeOpts := []store.Option{store.WithLogger(logger)}
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache, logger)
		if err != nil {
			logger.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		storeOpts = append(storeOpts, store.WithCache(c))
		logger.Info("cache connected", "host", cfg.Cache.Host, "port", cfg.Cache.Port)
	}

	markets := store.New(pool, storeOpts...)

	// Dome API client and one adapter per configured exchange
	domeClient := dome.NewClient(
		cfg.Dome.BaseURL,
		cfg.Dome.APIKey,
		dome.WithLogger(logger),
		dome.WithTimeout(cfg.Dome.Timeout),
		dome.WithRetries(cfg.Dome.MaxRetries, time.Second),
		dome.WithMinRequestInterval(cfg.Dome.MinRequestInterval),
	)

	registry, err := model.NewRegistry(cfg.Exchanges...)
	if err != nil {
		logger.Error("invalid exchange tag", "error", err)
		os.Exit(1)
	}
	adapters := make([]marketsync.Adapter, 0, len(cfg.Exchanges))
	for _, exchange := range cfg.Exchanges {
		adapters = append(adapters, dome.NewMarketSource(domeClient, exchange, cfg.Sync.PageSize))
	}

	orch := marketsync.New(
		marketsync.Config{
			Workers:       cfg.Sync.Workers,
			BatchDeadline: cfg.Sync.BatchDeadline,
		},
		normalize.New(registry),
		markets,
		logger,
	)

	runner := marketsync.NewRunner(cfg.Sync.Interval, orch, adapters, logger)

	// Start health server early so sync progress is observable
	healthPort := 8080
	if cfg.Metrics.Port > 0 {
		healthPort = cfg.Metrics.Port
	}

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", healthPort),
		Handler: createHealthHandler(pool, runner, cfg.Exchanges, markets),
	}

	go func() {
		logger.Info("starting health server", "port", healthPort)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start the sync runner (first cycle runs immediately)
	if err := runner.Start(ctx); err != nil {
		logger.Error("failed to start sync runner", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		runner.Stop(shutdownCtx)
	}()

	logger.Info("syncer running",
		"instance_id", cfg.Instance.ID,
		"interval", cfg.Sync.Interval,
		"health_url", fmt.Sprintf("http://localhost:%d/health", healthPort),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("syncer stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(pool *pgxpool.Pool, runner *marketsync.Runner, exchanges []string, markets *store.Store) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Latest batch report per exchange
		reports := make(map[string]interface{})
		synced := 0
		for _, exchange := range exchanges {
			report, ok := runner.LastReport(exchange)
			if !ok {
				reports[exchange] = "pending"
				continue
			}
			synced++
			reports[exchange] = map[string]interface{}{
				"state":     report.State.String(),
				"inserted":  report.Inserted,
				"updated":   report.Updated,
				"unchanged": report.Unchanged,
				"failed":    report.Failed,
				"skipped":   report.Skipped,
			}
		}
		health.Components["sync"] = reports
		if synced == 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/counts", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		counts, err := markets.CountByExchange(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counts)
	})

	return mux
}
