// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

// adminctl is a terminal admin console for the Freshmart product catalog.
// It signs in to the remote admin API, keeps a local ordered copy of the
// catalog and coordinates product mutations one at a time.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/freshmart/adminctl/internal/catalog"
	"github.com/freshmart/adminctl/internal/config"
	"github.com/freshmart/adminctl/internal/console"
	"github.com/freshmart/adminctl/internal/gateway"
	"github.com/freshmart/adminctl/internal/logging"
	"github.com/freshmart/adminctl/internal/notify"
	"github.com/freshmart/adminctl/internal/token"
	"github.com/freshmart/adminctl/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = ""
	appGitCommit = ""
	appBuildTime = ""
)

// app holds the wired application components shared by all commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	events *logging.EventBuffer
	store  catalog.Store
	cat    *catalog.Catalog
	gw     *gateway.Gateway
	lc     *console.Lifecycle
	co     *console.Coordinator
	term   *notify.Terminal
	info   version.Info
}

// newApp loads configuration and wires every component. The Redis store is
// optional: when it cannot be reached the catalog falls back to a local
// in-memory snapshot with a warning, the same data just not shared.
func newApp() (*app, error) {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, events := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	var store catalog.Store
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if cfg.UseRedisStore() {
		rs, err := catalog.NewRedisStore(cfg.RedisURL, cfg.CachePrefix, ttl)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory snapshot store", "error", err)
			store = catalog.NewMemoryStore(ttl, time.Minute)
		} else {
			logger.Info("snapshot store initialized", "backend", "redis")
			store = rs
		}
	} else {
		store = catalog.NewMemoryStore(ttl, time.Minute)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		events: events,
		store:  store,
		cat:    catalog.New(store, cfg.CategoryOrder),
		term:   notify.NewTerminal(os.Stdin, os.Stdout),
		info: version.Info{
			Version:   appVersion,
			GitCommit: appGitCommit,
			BuildTime: appBuildTime,
		},
	}

	tokens := token.NewStore(cfg.TokenFile)
	a.gw = gateway.New(cfg.APIBase, cfg.APIPath, func() (string, bool) { return a.lc.Token() }, logger)
	a.lc = console.NewLifecycle(a.gw, tokens, a.term, logger)
	a.co = console.NewCoordinator(a.gw, a.cat, a.lc, a.term, logger)
	return a, nil
}

// close releases the snapshot store.
func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close snapshot store", "error", err)
	}
}

func main() {
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Terminal admin console for the Freshmart product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newRefreshCmd(),
		newProductsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
