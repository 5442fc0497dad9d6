package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/freshmart/adminctl/internal/model"
)

// snapshotKey is where the serialized catalog lives in the backing store.
const snapshotKey = "catalog:products"

// DefaultCategoryOrder is the storefront's display precedence. Categories
// not listed here sort after all listed ones.
var DefaultCategoryOrder = []string{"meat", "vegetable", "fruit"}

// Catalog holds the ordered local copy of the product catalog. Every sync
// replaces the whole snapshot; there are no incremental merges, so the
// local copy can never drift from what the server last said.
type Catalog struct {
	mu       sync.RWMutex
	products []model.Product
	version  uint64

	store Store
	rank  map[string]int
	last  int // rank assigned to unlisted categories
}

// New creates a catalog ordered by categoryOrder, persisting snapshots to
// store. A nil store keeps the catalog purely in-process; an empty order
// falls back to DefaultCategoryOrder.
func New(store Store, categoryOrder []string) *Catalog {
	if len(categoryOrder) == 0 {
		categoryOrder = DefaultCategoryOrder
	}
	rank := make(map[string]int, len(categoryOrder))
	for i, cat := range categoryOrder {
		rank[cat] = i
	}
	return &Catalog{
		store: store,
		rank:  rank,
		last:  len(categoryOrder),
	}
}

// ReplaceAll discards the current snapshot and installs products in its
// place, sorted by category precedence. The sort is stable: within a
// category, and among unknown categories, the server's order survives.
func (c *Catalog) ReplaceAll(ctx context.Context, products []model.Product) error {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.categoryRank(sorted[i].Category) < c.categoryRank(sorted[j].Category)
	})

	c.mu.Lock()
	c.products = sorted
	c.version++
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	if err := c.store.Set(ctx, snapshotKey, data, 0); err != nil {
		return fmt.Errorf("persist catalog snapshot: %w", err)
	}
	return nil
}

// Hydrate loads the last persisted snapshot, if any. It is called once at
// startup so list commands work before the first sync completes. ok is
// false when the store has no snapshot.
func (c *Catalog) Hydrate(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	data, err := c.store.Get(ctx, snapshotKey)
	if err == ErrStoreMiss {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load catalog snapshot: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return false, fmt.Errorf("decode catalog snapshot: %w", err)
	}

	c.mu.Lock()
	c.products = products
	c.version++
	c.mu.Unlock()
	return true, nil
}

// Clear drops the snapshot locally and from the backing store. Used on
// logout so a credential change never shows stale data.
func (c *Catalog) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.products = nil
	c.version++
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, snapshotKey)
}

// Current returns a copy of the full snapshot in display order.
func (c *Catalog) Current() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Enabled returns only the products visible on the storefront, in display
// order.
func (c *Catalog) Enabled() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the product with the given ID.
func (c *Catalog) Find(id string) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// Len returns the number of products in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Version counts snapshot replacements since startup. Serve mode uses it
// as a cheap change marker.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Catalog) categoryRank(category string) int {
	if r, ok := c.rank[category]; ok {
		return r
	}
	return c.last
}
