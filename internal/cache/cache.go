// Package cache provides an optional Redis read-through cache for stored
// market records.
//
// The cache is strictly a performance optimization: entries carry a short
// TTL, every miss falls through to the store, and every commit refreshes
// the entry. The store remains the source of truth at all times; cache
// failures are logged and never surfaced to callers. Reads may lag the
// database by up to the TTL when another writer shares the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/market-sync/internal/config"
	"github.com/rickgao/market-sync/internal/model"
)

// Cache wraps a Redis client with record-shaped Get/Set.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and verifies the connection.
func New(cfg config.CacheConfig, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &Cache{client: client, ttl: cfg.TTL, logger: logger}, nil
}

func key(marketID, exchange string) string {
	return "market:" + exchange + ":" + marketID
}

// Get returns the cached record for the key, or false on miss or error.
func (c *Cache) Get(ctx context.Context, marketID, exchange string) (*model.MarketRecord, bool) {
	data, err := c.client.Get(ctx, key(marketID, exchange)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", "market_id", marketID, "exchange", exchange, "err", err)
		}
		return nil, false
	}

	var rec model.MarketRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", "market_id", marketID, "exchange", exchange, "err", err)
		return nil, false
	}
	return &rec, true
}

// Set stores the record with the configured TTL. Errors are logged only.
func (c *Cache) Set(ctx context.Context, rec *model.MarketRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("cache marshal failed", "key", rec.Key(), "err", err)
		return
	}
	if err := c.client.Set(ctx, key(rec.MarketID, rec.Exchange), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", rec.Key(), "err", err)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
