package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/market-sync/internal/cache"
	"github.com/rickgao/market-sync/internal/config"
	"github.com/rickgao/market-sync/internal/database"
	"github.com/rickgao/market-sync/internal/dome"
	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/normalize"
	"github.com/rickgao/market-sync/internal/store"
	marketsync "github.com/rickgao/market-sync/internal/sync"
)

// syncbatch runs one full sync for a single exchange and prints the
// batch reports as JSON. Useful for backfills and cron-driven setups.
func main() {
	configPath := flag.String("config", "configs/syncer.local.yaml", "path to config file")
	exchange := flag.String("exchange", model.ExchangeKalshi, "exchange to sync")
	status := flag.String("status", "", "restrict to markets in this status")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	storeOpts := []store.Option{store.WithLogger(logger)}
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache, logger)
		if err != nil {
			logger.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		storeOpts = append(storeOpts, store.WithCache(c))
	}
	markets := store.New(pool, storeOpts...)

	registry, err := model.NewRegistry(*exchange)
	if err != nil {
		logger.Error("invalid exchange tag", "exchange", *exchange, "error", err)
		os.Exit(1)
	}

	domeClient := dome.NewClient(
		cfg.Dome.BaseURL,
		cfg.Dome.APIKey,
		dome.WithLogger(logger),
		dome.WithTimeout(cfg.Dome.Timeout),
		dome.WithRetries(cfg.Dome.MaxRetries, time.Second),
		dome.WithMinRequestInterval(cfg.Dome.MinRequestInterval),
	)
	source := dome.NewMarketSource(domeClient, *exchange, cfg.Sync.PageSize)
	if *status != "" {
		source = source.WithStatus(*status)
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

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	failed := false
	cursor := ""
	for {
		payloads, next, err := source.FetchBatch(ctx, cursor)
		if err != nil {
			logger.Error("fetch batch failed", "cursor", cursor, "error", err)
			os.Exit(1)
		}
		if len(payloads) == 0 && next == "" {
			break
		}

		report := orch.SyncBatch(ctx, *exchange, payloads)
		if err := enc.Encode(report); err != nil {
			logger.Error("encode report", "error", err)
			os.Exit(1)
		}
		if report.Failed > 0 || report.Skipped > 0 {
			failed = true
		}

		if next == "" {
			break
		}
		cursor = next
	}

	if failed {
		os.Exit(2)
	}
}
