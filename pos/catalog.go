package pos

import (
	"context"
	"strings"
	"sync"
)

// ProductLister is the slice of the ledger client the catalog needs.
type ProductLister interface {
	ListProducts(ctx context.Context, outletID string) ([]Product, error)
}

// Catalog is the register's local product list, refreshed from the
// ledger and filtered for the menu grid.
type Catalog struct {
	lister   ProductLister
	outletID string

	mu       sync.RWMutex
	products []Product
}

// NewCatalog returns an empty catalog bound to one outlet.
func NewCatalog(lister ProductLister, outletID string) *Catalog {
	return &Catalog{lister: lister, outletID: outletID}
}

// Refresh replaces the cached list with the ledger's current catalog.
// On error the previous cache is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	products, err := c.lister.ListProducts(ctx, c.outletID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return nil
}

// Products returns a copy of the cached list.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Filter narrows the cached list. category of "" (or "Semua") matches
// everything; search matches the name case-insensitively; activeOnly
// hides products taken off the menu.
func (c *Catalog) Filter(category, search string, activeOnly bool) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	allCategories := category == "" || category == "Semua"

	var out []Product
	for _, p := range c.products {
		if activeOnly && !p.IsActive {
			continue
		}
		if !allCategories && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Get looks up a cached product by id.
func (c *Catalog) Get(productID string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == productID {
			return p, true
		}
	}
	return Product{}, false
}
