package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/market-sync/internal/config"
)

// connString renders the pool DSN. SSLMode is always populated by the
// config defaults before it reaches here, so there is no fallback.
func connString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		cfg.SSLMode,
	)
}
