// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/freshmart/adminctl/internal/catalog"
	"github.com/freshmart/adminctl/internal/gateway"
	"github.com/freshmart/adminctl/internal/model"
	"github.com/freshmart/adminctl/internal/notify"
)

// ErrNoPendingDeletion is returned when a deletion is confirmed or
// cancelled without one being requested first.
var ErrNoPendingDeletion = errors.New("no deletion pending")

// Coordinator serializes product mutations. While a create, update, delete
// or sync is in flight the busy flag is up and further mutations are
// refused with ErrBusy, mirroring how the hosted console disables its
// buttons.
type Coordinator struct {
	gw     *gateway.Gateway
	cat    *catalog.Catalog
	lc     *Lifecycle
	notif  notify.Notifier
	logger *slog.Logger

	busy atomic.Bool

	mu      sync.Mutex
	pending *model.Product
}

// NewCoordinator wires a coordinator to the gateway, catalog and lifecycle.
func NewCoordinator(gw *gateway.Gateway, cat *catalog.Catalog, lc *Lifecycle, notif notify.Notifier, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		gw:     gw,
		cat:    cat,
		lc:     lc,
		notif:  notif,
		logger: logger,
	}
}

// Busy reports whether a mutation or sync is currently in flight.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// acquire claims the mutation slot.
func (c *Coordinator) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (c *Coordinator) release() {
	c.busy.Store(false)
}

// Refresh fetches the full catalog from the server and replaces the local
// snapshot. The busy flag is held for the duration so a sync never
// interleaves with a mutation.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()
	return c.resync(ctx)
}

// Restore brings back the saved session and, when one survives, pulls a
// fresh catalog so the operator starts from current data.
func (c *Coordinator) Restore(ctx context.Context) error {
	if err := c.lc.Restore(ctx); err != nil {
		return err
	}
	switch c.lc.State() {
	case Authenticated, OptimisticallyAuthenticated:
		return c.Refresh(ctx)
	}
	return nil
}

// resync fetches and installs the catalog. The caller holds the busy flag.
// A result fetched under a session that has since changed is discarded.
func (c *Coordinator) resync(ctx context.Context) error {
	epoch := c.lc.Epoch()

	products, err := c.gw.FetchProducts(ctx)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			c.lc.Invalidate()
		}
		c.logger.Warn("catalog sync failed", "error", err)
		c.notif.Error("Failed to load products", gateway.UserMessage(err))
		return err
	}

	if c.lc.Epoch() != epoch {
		c.logger.Debug("discarding catalog fetched under a stale session")
		return nil
	}

	if err := c.cat.ReplaceAll(ctx, products); err != nil {
		c.logger.Warn("failed to store catalog snapshot", "error", err)
		return err
	}
	c.logger.Info("catalog synced", "products", len(products))
	return nil
}

// SubmitUpsert validates and sends a draft, then resyncs the catalog so the
// local copy reflects what the server actually stored. The returned error
// covers the mutation itself: once the server has accepted the write,
// SubmitUpsert reports success even if the follow-up sync fails, because
// the data is safe and only the local view is stale.
func (c *Coordinator) SubmitUpsert(ctx context.Context, draft *model.Draft) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	creating := draft.ID == ""
	if err := c.gw.SaveProduct(ctx, draft); err != nil {
		if gateway.IsUnauthorized(err) {
			c.lc.Invalidate()
		}
		c.logger.Warn("product save failed", "id", draft.ID, "error", err)
		c.notif.Error("Save failed", gateway.UserMessage(err))
		return err
	}

	_ = c.resync(ctx) // already notified on failure

	if creating {
		c.notif.Success("Product created", draft.Title)
	} else {
		c.notif.Success("Product updated", draft.Title)
	}
	return nil
}

// RequestDeletion stages a product for deletion. Nothing is sent until the
// operator confirms. Staging a new product replaces any earlier staged one.
func (c *Coordinator) RequestDeletion(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &p
}

// PendingDeletion returns the product staged for deletion, if any.
func (c *Coordinator) PendingDeletion() (model.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return model.Product{}, false
	}
	return *c.pending, true
}

// CancelDeletion discards the staged deletion.
func (c *Coordinator) CancelDeletion() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return ErrNoPendingDeletion
	}
	c.pending = nil
	return nil
}

// ConfirmDeletion deletes the staged product. The stage is cleared only
// once the server has accepted the delete; a failed or refused attempt
// leaves it in place so the operator can retry.
func (c *Coordinator) ConfirmDeletion(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoPendingDeletion
	}
	target := *c.pending
	c.mu.Unlock()

	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	if err := c.gw.DeleteProduct(ctx, target.ID); err != nil {
		if gateway.IsUnauthorized(err) {
			c.lc.Invalidate()
		}
		c.logger.Warn("product delete failed", "id", target.ID, "error", err)
		c.notif.Error("Delete failed", gateway.UserMessage(err))
		return err
	}

	c.mu.Lock()
	// Only unstage what was actually deleted; a product staged while the
	// delete was in flight keeps waiting for its own confirmation.
	if c.pending != nil && c.pending.ID == target.ID {
		c.pending = nil
	}
	c.mu.Unlock()

	_ = c.resync(ctx)

	c.notif.Success("Product deleted", target.Title)
	return nil
}
