package utils

// A simple LRU cache for string keys. Used to deduplicate cluster keys
// across scan batches and to remember already-seen bundle ids.
type KeyCache struct {
	set      map[string]struct{}
	order    []string
	capacity int
}

func NewKeyCache(capacity int) *KeyCache {
	return &KeyCache{
		set:      make(map[string]struct{}),
		capacity: capacity,
		order:    make([]string, 0, capacity),
	}
}

func (c *KeyCache) Has(key string) bool {
	_, exists := c.set[key]
	return exists
}

func (c *KeyCache) Add(key string) {
	if c.Has(key) {
		return
	}
	if len(c.order) >= c.capacity {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.set, old)
	}
	c.set[key] = struct{}{}
	c.order = append(c.order, key)
}

// Seen adds the key and reports whether it was already present.
func (c *KeyCache) Seen(key string) bool {
	if c.Has(key) {
		return true
	}
	c.Add(key)
	return false
}

func (c *KeyCache) Len() int {
	return len(c.set)
}
