package paddle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"subscription-billing-be/pkg/billing"
)

const catalogTTL = 5 * time.Minute

// catalogLister is the slice of Client the cache needs.
type catalogLister interface {
	ListProducts(ctx context.Context, after string) ([]productData, string, error)
}

// Catalog caches the provider's product list, keyed by the product code
// stored in each product's custom data. The snapshot is refetched in full
// once the TTL elapses; lookups racing a refetch may serve the stale
// snapshot, which is fine because catalogs change far slower than the TTL.
type Catalog struct {
	lister catalogLister
	now    func() time.Time

	mu        sync.RWMutex
	byCode    map[string]productData
	byID      map[string]productData
	fetchedAt time.Time
}

func NewCatalog(lister catalogLister) *Catalog {
	return &Catalog{
		lister: lister,
		now:    time.Now,
	}
}

// NewCatalogWithClock injects the clock, for tests.
func NewCatalogWithClock(lister catalogLister, now func() time.Time) *Catalog {
	return &Catalog{
		lister: lister,
		now:    now,
	}
}

// ProductID resolves an internal product code to the provider-side product
// id. A miss after a fresh fetch is terminal, not retried.
func (c *Catalog) ProductID(ctx context.Context, code string) (string, error) {
	snapshot, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	product, ok := snapshot.byCode[code]
	if !ok {
		return "", fmt.Errorf("%w: %s", billing.ErrProductNotInCatalog, code)
	}
	return product.ID, nil
}

// CodeFor resolves a provider-side product id back to the internal product
// code, used when normalizing webhook payloads.
func (c *Catalog) CodeFor(ctx context.Context, providerProductID string) (string, error) {
	snapshot, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	product, ok := snapshot.byID[providerProductID]
	if !ok {
		return "", fmt.Errorf("%w: provider product %s", billing.ErrProductNotInCatalog, providerProductID)
	}
	return product.CustomData["product_code"], nil
}

type catalogSnapshot struct {
	byCode map[string]productData
	byID   map[string]productData
}

func (c *Catalog) snapshot(ctx context.Context) (catalogSnapshot, error) {
	c.mu.RLock()
	fresh := !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < catalogTTL
	snap := catalogSnapshot{byCode: c.byCode, byID: c.byID}
	c.mu.RUnlock()
	if fresh {
		return snap, nil
	}
	return c.refetch(ctx)
}

// refetch pages through the entire catalog outside the lock, then swaps the
// snapshot under the write lock.
func (c *Catalog) refetch(ctx context.Context) (catalogSnapshot, error) {
	byCode := make(map[string]productData)
	byID := make(map[string]productData)

	after := ""
	for {
		products, next, err := c.lister.ListProducts(ctx, after)
		if err != nil {
			return catalogSnapshot{}, fmt.Errorf("catalog refetch: %w", err)
		}
		for _, p := range products {
			byID[p.ID] = p
			if code := p.CustomData["product_code"]; code != "" {
				byCode[code] = p
			}
		}
		if next == "" {
			break
		}
		after = next
	}

	c.mu.Lock()
	c.byCode = byCode
	c.byID = byID
	c.fetchedAt = c.now()
	c.mu.Unlock()

	return catalogSnapshot{byCode: byCode, byID: byID}, nil
}
