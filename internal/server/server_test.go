// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/freshmart/adminctl/internal/catalog"
	"github.com/freshmart/adminctl/internal/console"
	"github.com/freshmart/adminctl/internal/gateway"
	"github.com/freshmart/adminctl/internal/logging"
	"github.com/freshmart/adminctl/internal/model"
	"github.com/freshmart/adminctl/internal/notify"
	"github.com/freshmart/adminctl/internal/token"
	"github.com/freshmart/adminctl/internal/version"
)

func testServer(t *testing.T) (*Server, *catalog.Catalog, *slog.Logger) {
	t.Helper()

	logger, events := logging.New(io.Discard, "info")
	rec := &notify.Recorder{}
	tokens := token.NewStore(filepath.Join(t.TempDir(), "session.json"))
	cat := catalog.New(nil, nil)

	var lc *console.Lifecycle
	gw := gateway.New("http://127.0.0.1:1", "freshmart", func() (string, bool) { return lc.Token() }, logger)
	lc = console.NewLifecycle(gw, tokens, rec, logger)
	co := console.NewCoordinator(gw, cat, lc, rec, logger)

	s := New("localhost:0", cat, lc, co, events, version.Info{Version: "v1.0.0"}, logger)
	return s, cat, logger
}

func get(t *testing.T, srv *httptest.Server, path string) (int, map[string]any) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding %s response: %v", path, err)
	}
	return resp.StatusCode, body
}

func TestHealthz(t *testing.T) {
	s, _, _ := testServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	status, body := get(t, srv, "/healthz")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["session"] != "unauthenticated" {
		t.Errorf("session = %v", body["session"])
	}
	if body["busy"] != false {
		t.Errorf("busy = %v", body["busy"])
	}
}

func TestProducts(t *testing.T) {
	s, cat, _ := testServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	if err := cat.ReplaceAll(context.Background(), []model.Product{
		{ID: "m1", Category: "meat", Title: "Beef", IsEnabled: 1},
		{ID: "x1", Category: "meat", Title: "Hidden", IsEnabled: 0},
		{ID: "f1", Category: "fruit", Title: "Apples", IsEnabled: 1},
	}); err != nil {
		t.Fatal(err)
	}

	// Default view shows enabled products only.
	status, body := get(t, srv, "/products")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["total"] != float64(2) {
		t.Errorf("total = %v, want 2", body["total"])
	}

	// all=1 includes disabled products.
	_, body = get(t, srv, "/products?all=1")
	if body["total"] != float64(3) {
		t.Errorf("total with all=1 = %v, want 3", body["total"])
	}

	// Ordering in the payload follows category precedence.
	products := body["products"].([]any)
	first := products[0].(map[string]any)
	if first["id"] != "m1" {
		t.Errorf("first product = %v, want m1", first["id"])
	}
}

func TestProductByID(t *testing.T) {
	s, cat, _ := testServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	if err := cat.ReplaceAll(context.Background(), []model.Product{
		{ID: "p1", Category: "fruit", Title: "Apples", IsEnabled: 1},
	}); err != nil {
		t.Fatal(err)
	}

	status, body := get(t, srv, "/products/p1")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	p := body["product"].(map[string]any)
	if p["title"] != "Apples" {
		t.Errorf("title = %v", p["title"])
	}

	status, _ = get(t, srv, "/products/nope")
	if status != http.StatusNotFound {
		t.Errorf("missing product status = %d, want 404", status)
	}
}

func TestEvents(t *testing.T) {
	s, _, logger := testServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	logger.Warn("catalog sync failed", "error", "timeout")

	status, body := get(t, srv, "/events")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	events := body["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0].(map[string]any)
	if e["message"] != "catalog sync failed" || e["level"] != "warning" {
		t.Errorf("event = %v", e)
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	s, _, _ := testServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/refresh", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
