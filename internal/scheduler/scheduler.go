// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background jobs of serve mode: periodic
// catalog syncs and session keepalive checks.
package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/freshmart/adminctl/internal/console"
)

// verifySpec is how often the session is re-verified against the server.
const verifySpec = "@every 30m"

// Scheduler handles scheduled background jobs.
type Scheduler struct {
	cron   *cron.Cron
	lc     *console.Lifecycle
	co     *console.Coordinator
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(lc *console.Lifecycle, co *console.Coordinator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		lc:     lc,
		co:     co,
		logger: logger,
	}
}

// Start registers the jobs and begins the scheduler. refreshSpec is a cron
// expression or descriptor like "@every 5m" controlling catalog syncs.
func (s *Scheduler) Start(refreshSpec string) error {
	if _, err := s.cron.AddFunc(refreshSpec, s.refreshCatalog); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(verifySpec, s.verifySession); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "refresh", refreshSpec)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// refreshCatalog syncs the catalog when a session is available. A sync that
// loses the race against a foreground mutation is simply skipped; the next
// tick will catch up.
func (s *Scheduler) refreshCatalog() {
	if state := s.lc.State(); state != console.Authenticated && state != console.OptimisticallyAuthenticated {
		s.logger.Debug("skipping catalog sync", "state", state.String())
		return
	}

	if err := s.co.Refresh(context.Background()); err != nil {
		if errors.Is(err, console.ErrBusy) {
			s.logger.Debug("catalog sync skipped, mutation in progress")
			return
		}
		s.logger.Error("scheduled catalog sync failed", "error", err)
	}
}

// verifySession confirms the session is still accepted so an expired token
// is noticed before an operator tries to use it.
func (s *Scheduler) verifySession() {
	if err := s.lc.Verify(context.Background()); err != nil {
		s.logger.Warn("scheduled session check failed", "error", err)
	}
}
