package cache

import (
	"fmt"
	"fxcache/internal/domain"
	"slices"

	"github.com/dgraph-io/ristretto"
)

// RistrettoRateListCache keeps the ordered rate list per base currency until the next synchronization.
type RistrettoRateListCache struct {
	cache *ristretto.Cache
}

func NewRateListCache(maxItems int64) (*RistrettoRateListCache, error) {
	if maxItems <= 0 {
		maxItems = 64
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
		// cost is counted in lists, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate list cache failed: %w", err)
	}
	return &RistrettoRateListCache{cache: c}, nil
}

func (c *RistrettoRateListCache) Get(base domain.CurrencyCode) ([]domain.RateRecord, bool) {
	if v, ok := c.cache.Get(toKey(base)); ok {
		records, ok := v.([]domain.RateRecord)
		return slices.Clone(records), ok
	}
	return nil, false
}

func (c *RistrettoRateListCache) Set(base domain.CurrencyCode, records []domain.RateRecord) {
	c.cache.Set(toKey(base), slices.Clone(records), 1)
	c.cache.Wait()
}

// Invalidate drops every cached list; called after each write to the rate table.
func (c *RistrettoRateListCache) Invalidate() { c.cache.Clear() }

func (c *RistrettoRateListCache) Close() { c.cache.Close() }

func toKey(base domain.CurrencyCode) string { return "rates:" + base.String() }
