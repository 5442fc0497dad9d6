// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/freshmart/adminctl/internal/console"
	"github.com/freshmart/adminctl/internal/scheduler"
	"github.com/freshmart/adminctl/internal/server"
	"github.com/freshmart/adminctl/internal/version"
)

// errNotLoggedIn is returned by commands that need a confirmed session.
var errNotLoggedIn = errors.New("not logged in, run: adminctl login")

// requireSession restores the saved session, pulls a fresh catalog when one
// survives, and fails when none does. Network trouble is tolerated: the
// session stays optimistic and commands proceed, letting the server be the
// judge.
func requireSession(ctx context.Context, a *app) error {
	if err := a.co.Restore(ctx); err != nil {
		a.logger.Debug("session restore incomplete", "error", err)
	}
	if state := a.lc.State(); state != console.Authenticated && state != console.OptimisticallyAuthenticated {
		return errNotLoggedIn
	}
	return nil
}

// promptLine reads one line from stdin with a label.
func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if username == "" {
				if username, err = promptLine("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptLine("Password: "); err != nil {
					return err
				}
			}

			if err := a.lc.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			// Warm the catalog so the first list is instant.
			if err := a.co.Refresh(cmd.Context()); err != nil {
				a.logger.Warn("initial catalog sync failed", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username (prompted when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the saved session and cached catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.lc.Restore(cmd.Context()); err != nil {
				a.logger.Debug("session verification unavailable", "error", err)
			}
			if err := a.cat.Clear(cmd.Context()); err != nil {
				a.logger.Warn("failed to clear catalog snapshot", "error", err)
			}
			return a.lc.Logout(cmd.Context())
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session state and catalog summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.co.Restore(cmd.Context()); err != nil {
				a.logger.Debug("session restore incomplete", "error", err)
			}
			if _, ok := a.lc.Session(); ok {
				// The operator asked; confirm the session out loud.
				_ = a.lc.Check(cmd.Context())
			} else if _, err := a.cat.Hydrate(cmd.Context()); err != nil {
				a.logger.Warn("failed to load catalog snapshot", "error", err)
			}

			fmt.Printf("session:  %s\n", a.lc.State())
			if sess, ok := a.lc.Session(); ok {
				fmt.Printf("expires:  %s\n", sess.ExpiresAt.Format(time.RFC3339))
			}
			fmt.Printf("api:      %s (%s)\n", a.cfg.APIBase, a.cfg.APIPath)
			fmt.Printf("products: %d cached\n", a.cat.Len())
			return nil
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Sync the local catalog from the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.co.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("synced %d products\n", a.cat.Len())
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only preview server with background syncs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.lc.Restore(ctx); err != nil {
				a.logger.Warn("session verification unavailable", "error", err)
			}
			if _, err := a.cat.Hydrate(ctx); err != nil {
				a.logger.Warn("failed to load catalog snapshot", "error", err)
			}

			// Best-effort initial sync; the scheduler retries.
			if state := a.lc.State(); state == console.Authenticated || state == console.OptimisticallyAuthenticated {
				if err := a.co.Refresh(ctx); err != nil {
					a.logger.Warn("initial catalog sync failed", "error", err)
				}
			} else {
				a.logger.Warn("no session, serving cached catalog only")
			}

			sched := scheduler.New(a.lc, a.co, a.logger)
			if err := sched.Start(a.cfg.RefreshSpec); err != nil {
				return fmt.Errorf("starting scheduler: %w", err)
			}
			defer sched.Stop()

			srv := server.New(a.cfg.ServerAddr(), a.cat, a.lc, a.co, a.events, a.info, a.logger)
			go func() {
				if err := srv.ListenAndServe(); err != nil {
					a.logger.Error("server error", "error", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.Info{
				Version:   appVersion,
				GitCommit: appGitCommit,
				BuildTime: appBuildTime,
			}.String())
		},
	}
}
