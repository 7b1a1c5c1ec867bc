package resolver

import (
	"container/list"
	"sync"
)

// entry is a cached resolution outcome. Found is false when WoRMS had no
// record for the name; negative results are cached deliberately so a
// misspelled name costs one remote call per process, not one per request.
type entry struct {
	id    int64
	found bool
}

type lruItem struct {
	key   string
	value entry
}

// lruCache is a fixed-capacity LRU map from normalized names to resolution
// outcomes. Safe for concurrent use.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

func newLRUCache(capacity int) *lruCache {
	if capacity < 1 {
		capacity = 1
	}
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// get returns the cached entry and marks it most recently used.
func (c *lruCache) get(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return entry{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruItem).value, true
}

// put inserts or refreshes an entry, evicting the least recently used one
// when the cache is full.
func (c *lruCache) put(key string, value entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruItem).value = value
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruItem).key)
		}
	}

	c.items[key] = c.order.PushFront(&lruItem{key: key, value: value})
}

// len reports the number of cached entries.
func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
