// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

// Package server exposes the read-only preview API of serve mode: the
// synced catalog, recent log events and a manual refresh trigger.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/freshmart/adminctl/internal/catalog"
	"github.com/freshmart/adminctl/internal/console"
	"github.com/freshmart/adminctl/internal/logging"
	"github.com/freshmart/adminctl/internal/version"
)

// Server serves the preview API.
type Server struct {
	addr   string
	cat    *catalog.Catalog
	lc     *console.Lifecycle
	co     *console.Coordinator
	events *logging.EventBuffer
	info   version.Info
	logger *slog.Logger
	httpd  *http.Server
}

// New creates a server bound to addr.
func New(addr string, cat *catalog.Catalog, lc *console.Lifecycle, co *console.Coordinator,
	events *logging.EventBuffer, info version.Info, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		cat:    cat,
		lc:     lc,
		co:     co,
		events: events,
		info:   info,
		logger: logger,
	}
	s.httpd = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/products", s.handleProducts)
	r.Get("/products/{id}", s.handleProduct)
	r.Get("/events", s.handleEvents)
	r.Post("/refresh", s.handleRefresh)

	return r
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("preview server listening", "addr", s.addr)
	if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpd.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.info.String(),
		"session":  s.lc.State().String(),
		"products": s.cat.Len(),
		"busy":     s.co.Busy(),
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products := s.cat.Enabled()
	if r.URL.Query().Get("all") == "1" {
		products = s.cat.Current()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    len(products),
		"version":  s.cat.Version(),
	})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.cat.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"events": s.events.Events()})
}

// handleRefresh triggers a catalog sync. 401 without a session, 409 while
// another operation holds the mutation slot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if state := s.lc.State(); state != console.Authenticated && state != console.OptimisticallyAuthenticated {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}

	if err := s.co.Refresh(r.Context()); err != nil {
		if errors.Is(err, console.ErrBusy) {
			writeError(w, http.StatusConflict, "another operation is in progress")
			return
		}
		s.logger.Warn("manual refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": s.cat.Len()})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"error": map[string]string{"message": message},
	})
}
