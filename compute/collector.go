package compute

import "sync"

// Collector is a group-by-key rendezvous: parallel tasks append values
// under keys, and once all producers have finished, Groups hands the
// accumulated map to a single owner.  It is the only point in a stage
// where tasks share state.
type Collector[K comparable, V any] struct {
	mu     sync.Mutex
	groups map[K][]V
}

func NewCollector[K comparable, V any]() *Collector[K, V] {
	return &Collector[K, V]{groups: make(map[K][]V)}
}

// Add appends a value under the given key.
func (c *Collector[K, V]) Add(key K, value V) {
	c.mu.Lock()
	c.groups[key] = append(c.groups[key], value)
	c.mu.Unlock()
}

// Groups returns the accumulated groups.  It must only be called after
// all producers have completed; the caller becomes the sole owner.
func (c *Collector[K, V]) Groups() map[K][]V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groups
}
