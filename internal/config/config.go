// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBase   string `env:"ADMINCTL_API_BASE,required"`                     // Remote API origin, e.g. https://vue3-course-api.example.com
	APIPath   string `env:"ADMINCTL_API_PATH,required"`                     // Vendor path segment assigned by the API provider
	TokenFile string `env:"ADMINCTL_TOKEN_FILE" envDefault:"./data/session.json"`
	LogLevel  string `env:"ADMINCTL_LOG_LEVEL" envDefault:"info"`

	// Catalog store configuration
	RedisURL      string   `env:"ADMINCTL_REDIS_URL"`                           // Optional Redis URL for a shared catalog snapshot
	CachePrefix   string   `env:"ADMINCTL_CACHE_PREFIX" envDefault:"adminctl:"` // Redis key prefix
	CacheTTL      int      `env:"ADMINCTL_CACHE_TTL" envDefault:"3600"`         // Snapshot TTL in seconds
	CategoryOrder []string `env:"ADMINCTL_CATEGORY_ORDER" envSeparator:","`     // Display precedence; empty uses the built-in order

	// Serve mode configuration
	ServerHost  string `env:"ADMINCTL_SERVER_HOST" envDefault:"localhost"`
	ServerPort  int    `env:"ADMINCTL_SERVER_PORT" envDefault:"8080"`
	RefreshSpec string `env:"ADMINCTL_REFRESH_SPEC" envDefault:"@every 5m"` // Cron spec for background catalog syncs
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisStore returns true if a shared Redis snapshot store is configured.
func (c Config) UseRedisStore() bool {
	return c.RedisURL != ""
}

// logLevels are the accepted ADMINCTL_LOG_LEVEL values.
var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	u, err := url.Parse(cfg.APIBase)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("ADMINCTL_API_BASE must be an absolute http(s) URL, got %q", cfg.APIBase)
	}

	cfg.APIPath = strings.Trim(cfg.APIPath, "/")
	if cfg.APIPath == "" || strings.Contains(cfg.APIPath, "/") {
		return nil, fmt.Errorf("ADMINCTL_API_PATH must be a single path segment, got %q", cfg.APIPath)
	}

	if !logLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("ADMINCTL_LOG_LEVEL must be one of debug, info, warn, error; got %q", cfg.LogLevel)
	}

	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("ADMINCTL_CACHE_TTL must be positive, got %d", cfg.CacheTTL)
	}

	return cfg, nil
}
