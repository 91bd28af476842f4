// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package clifford

import (
	"container/list"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/causalml/substrate/tensor"
)

// Cache limits. Gamma tables grow as 2^dim matrices of side 2^(dim/2+1),
// so both a dimension ceiling and a byte budget are enforced.
const (
	// DefaultMaxDimension is the largest algebra dimension a cache will
	// build tables for. At 12 a float64 table is already half a GiB.
	DefaultMaxDimension = 12

	// DefaultByteBudget is the total byte budget across cached tables.
	DefaultByteBudget = 256 << 20 // 256 MiB
)

// Cache holds Gamma blade tables keyed by (metric, dtype).
//
// Tables are built lazily on first use. Concurrent first requests for the
// same key are collapsed into a single build; later reads take the
// read-lock fast path. When the byte budget is exceeded the least
// recently used tables are evicted and rebuilt on next demand.
//
// Cache is an explicit object rather than a package global so tests and
// embedders can run isolated instances with their own limits.
//
// Returned tables are shared and must be treated as read-only; contract
// operations never mutate their inputs, so passing them to a backend is
// always safe.
type Cache struct {
	mu      sync.RWMutex
	group   singleflight.Group
	entries map[string]*list.Element
	lru     *list.List // front = most recently used
	total   int64

	maxDim int
	budget int64
}

type cacheEntry struct {
	key   string
	table *tensor.RawTensor
	size  int64
}

// NewCache creates a cache with the default dimension ceiling and byte
// budget.
func NewCache() *Cache {
	return NewCacheWithLimits(DefaultMaxDimension, DefaultByteBudget)
}

// NewCacheWithLimits creates a cache with explicit limits.
func NewCacheWithLimits(maxDimension int, byteBudget int64) *Cache {
	return &Cache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		maxDim:  maxDimension,
		budget:  byteBudget,
	}
}

// Get returns the Gamma table for the metric and dtype, building it on
// first use. Fails with ErrResourceExhausted when the algebra dimension
// exceeds the cache's ceiling.
func (c *Cache) Get(metric Metric, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if metric.Dim() > c.maxDim {
		return nil, fmt.Errorf("clifford: %w: gamma table for %s (dimension %d) exceeds ceiling %d",
			tensor.ErrResourceExhausted, metric, metric.Dim(), c.maxDim)
	}
	key := metric.Key() + "|" + dtype.String()

	if table, ok := c.lookup(key); ok {
		return table, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent caller may have finished the build between the
		// miss and entering the flight.
		if table, ok := c.lookup(key); ok {
			return table, nil
		}
		table, err := buildGammaTable(metric, dtype)
		if err != nil {
			return nil, err
		}
		c.insert(key, table)
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tensor.RawTensor), nil
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SizeBytes returns the total bytes held by cached tables.
func (c *Cache) SizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

func (c *Cache) lookup(key string) (*tensor.RawTensor, bool) {
	c.mu.RLock()
	el, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	c.lru.MoveToFront(el)
	c.mu.Unlock()
	return el.Value.(*cacheEntry).table, true
}

func (c *Cache) insert(key string, table *tensor.RawTensor) {
	size := int64(len(table.Data()))
	c.mu.Lock()
	defer c.mu.Unlock()

	el := c.lru.PushFront(&cacheEntry{key: key, table: table, size: size})
	c.entries[key] = el
	c.total += size

	// Evict least recently used tables over budget, but never the entry
	// just inserted: a single oversized table still gets served.
	for c.total > c.budget && c.lru.Len() > 1 {
		back := c.lru.Back()
		entry := back.Value.(*cacheEntry)
		c.lru.Remove(back)
		delete(c.entries, entry.key)
		c.total -= entry.size
	}
}
