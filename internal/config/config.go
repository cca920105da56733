package config

import "time"

// SyncerConfig is the root configuration for a syncer instance.
type SyncerConfig struct {
	Instance  InstanceConfig `yaml:"instance"`
	Dome      DomeConfig     `yaml:"dome"`
	Database  DatabaseConfig `yaml:"database"`
	Cache     CacheConfig    `yaml:"cache"`
	Sync      SyncConfig     `yaml:"sync"`
	Exchanges []string       `yaml:"exchanges"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this syncer.
type InstanceConfig struct {
	ID string `yaml:"id"`
	AZ string `yaml:"az"`
}

// DomeConfig holds Dome API settings. Dome is the aggregator both
// exchange adapters fetch through.
type DomeConfig struct {
	BaseURL            string        `yaml:"base_url"`
	APIKey             string        `yaml:"api_key"`
	Timeout            time.Duration `yaml:"timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	MinRequestInterval time.Duration `yaml:"min_request_interval"`
}

// DatabaseConfig holds the PostgreSQL connection for the markets store.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CacheConfig holds the optional Redis read-through cache. The cache is a
// performance optimization only; the store remains the source of truth.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SyncConfig holds orchestrator settings.
type SyncConfig struct {
	Interval      time.Duration `yaml:"interval"`       // time between full sync cycles
	Workers       int           `yaml:"workers"`        // concurrent commits per batch
	PageSize      int           `yaml:"page_size"`      // records requested per adapter page
	BatchDeadline time.Duration `yaml:"batch_deadline"` // overall deadline per batch (0 = none)
}

// MetricsConfig holds the health/metrics listener settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
