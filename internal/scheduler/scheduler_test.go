// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/freshmart/adminctl/internal/catalog"
	"github.com/freshmart/adminctl/internal/console"
	"github.com/freshmart/adminctl/internal/gateway"
	"github.com/freshmart/adminctl/internal/notify"
	"github.com/freshmart/adminctl/internal/token"
)

func testScheduler(t *testing.T) (*Scheduler, *notify.Recorder) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := &notify.Recorder{}
	tokens := token.NewStore(filepath.Join(t.TempDir(), "session.json"))

	var lc *console.Lifecycle
	gw := gateway.New("http://127.0.0.1:1", "freshmart", func() (string, bool) { return lc.Token() }, logger)
	lc = console.NewLifecycle(gw, tokens, rec, logger)
	co := console.NewCoordinator(gw, catalog.New(nil, nil), lc, rec, logger)

	return New(lc, co, logger), rec
}

func TestStartRejectsBadSpec(t *testing.T) {
	s, _ := testScheduler(t)
	if err := s.Start("not a cron spec"); err == nil {
		t.Fatal("Start() should reject a malformed spec")
	}
}

func TestStartAndStop(t *testing.T) {
	s, _ := testScheduler(t)
	if err := s.Start("@every 1h"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("registered %d jobs, want 2", got)
	}
	s.Stop()
}

func TestRefreshSkipsWithoutSession(t *testing.T) {
	s, rec := testScheduler(t)

	// No session: the job must not touch the network or notify anyone.
	s.refreshCatalog()
	if n := rec.Notifications(); len(n) != 0 {
		t.Errorf("unexpected notifications: %v", n)
	}
}

func TestVerifySkipsWithoutSession(t *testing.T) {
	s, rec := testScheduler(t)

	s.verifySession()
	if n := rec.Notifications(); len(n) != 0 {
		t.Errorf("unexpected notifications: %v", n)
	}
}
