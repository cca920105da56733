package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *SyncerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Dome.APIKey == "" {
		return errors.New("dome.api_key is required")
	}
	if c.Dome.MaxRetries < 0 {
		return errors.New("dome.max_retries must be >= 0")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Cache.Enabled && c.Cache.Host == "" {
		return errors.New("cache.host is required when cache is enabled")
	}

	if c.Sync.Workers < 1 {
		return errors.New("sync.workers must be >= 1")
	}
	if c.Sync.PageSize < 1 {
		return errors.New("sync.page_size must be >= 1")
	}
	if c.Sync.Interval <= 0 {
		return errors.New("sync.interval must be positive")
	}

	for _, tag := range c.Exchanges {
		if tag == "" || tag != strings.ToLower(tag) {
			return fmt.Errorf("exchanges must be lowercase tags, got %q", tag)
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
