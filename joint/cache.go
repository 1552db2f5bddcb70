// SPDX-License-Identifier: MIT

package joint

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jeffpollock9/probability/distribution"
)

// cache holds one prototypical list of component distributions per
// execution context. Entries are written once and never evicted.
type cache struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]distribution.Distribution
}

func newCache() *cache {
	return &cache{entries: make(map[uuid.UUID][]distribution.Distribution)}
}

func (c *cache) get(token uuid.UUID) ([]distribution.Distribution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ds, ok := c.entries[token]
	return ds, ok
}

// put stores ds under token unless an entry exists, and returns the stored
// list. A later writer must agree with the first.
//
// Errors: ErrCacheConflict when ds disagrees with the stored list.
func (c *cache) put(token uuid.UUID, ds []distribution.Distribution) ([]distribution.Distribution, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[token]; ok {
		if err := agree(old, ds); err != nil {
			return nil, false, err
		}
		return old, false, nil
	}
	c.entries[token] = ds
	return ds, true, nil
}

// offer stores ds under token when the context has no entry yet. An
// existing entry is kept without comparison.
func (c *cache) offer(token uuid.UUID, ds []distribution.Distribution) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[token]; ok {
		return false
	}
	c.entries[token] = ds
	return true
}

// agree checks two component lists for the same kinds and static shapes.
func agree(a, b []distribution.Distribution) error {
	if len(a) != len(b) {
		return jointErrorf("cache", ErrCacheConflict, "%d components cached, %d offered", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind().Name() != b[i].Kind().Name() ||
			!a[i].BatchShape().IsCompatibleWith(b[i].BatchShape()) ||
			!a[i].EventShape().IsCompatibleWith(b[i].EventShape()) {
			return jointErrorf("cache", ErrCacheConflict, "component %d: cached %v, offered %v", i, a[i], b[i])
		}
	}
	return nil
}
