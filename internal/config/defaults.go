package config

import (
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// Default values for optional configuration fields.
const (
	DefaultDomeBaseURL        = "https://api.domeapi.io"
	DefaultDomeTimeout        = 30 * time.Second
	DefaultDomeMaxRetries     = 3
	DefaultMinRequestInterval = 100 * time.Millisecond
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultCachePort          = 6379
	DefaultCacheTTL           = 30 * time.Second
	DefaultSyncInterval       = 15 * time.Minute
	DefaultSyncWorkers        = 8
	DefaultPageSize           = 500
	DefaultBatchDeadline      = 5 * time.Minute
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
)

func (c *SyncerConfig) applyDefaults() {
	// Dome API defaults
	if c.Dome.BaseURL == "" {
		c.Dome.BaseURL = DefaultDomeBaseURL
	}
	if c.Dome.Timeout == 0 {
		c.Dome.Timeout = DefaultDomeTimeout
	}
	if c.Dome.MaxRetries == 0 {
		c.Dome.MaxRetries = DefaultDomeMaxRetries
	}
	if c.Dome.MinRequestInterval == 0 {
		c.Dome.MinRequestInterval = DefaultMinRequestInterval
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Cache defaults
	if c.Cache.Port == 0 {
		c.Cache.Port = DefaultCachePort
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = DefaultSyncWorkers
	}
	if c.Sync.PageSize == 0 {
		c.Sync.PageSize = DefaultPageSize
	}
	if c.Sync.BatchDeadline == 0 {
		c.Sync.BatchDeadline = DefaultBatchDeadline
	}

	// Exchanges default to the built-in pair
	if len(c.Exchanges) == 0 {
		c.Exchanges = []string{model.ExchangeKalshi, model.ExchangePolymarket}
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
