package cache

import (
	"sync"
	"sync/atomic"
)

// node is an entry in the recency list. Nodes carry both key and value so
// eviction can hand them to the callback without a second map lookup.
type node[K comparable, V any] struct {
	key  K
	val  V
	prev *node[K, V]
	next *node[K, V]
}

// list is a doubly-linked recency list. Head is most recently used, tail is
// least recently used. Not thread-safe; the LRU synchronizes access.
type list[K comparable, V any] struct {
	head *node[K, V]
	tail *node[K, V]
}

func (l *list[K, V]) pushFront(n *node[K, V]) {
	if l.head == nil {
		l.head = n
		l.tail = n
		return
	}
	n.next = l.head
	l.head.prev = n
	l.head = n
}

func (l *list[K, V]) moveToFront(n *node[K, V]) {
	if n == l.head {
		return
	}
	l.unlink(n)
	l.pushFront(n)
}

func (l *list[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

// LRU is a strict least-recently-used cache with a hard entry cap: inserting
// past capacity evicts the oldest entry, batch trims evict from the tail.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]*node[K, V]
	order    list[K, V]
	onEvict  func(K, V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates an LRU holding at most capacity entries (minimum 1). onEvict,
// when non-nil, runs for every value leaving the cache (eviction, trim,
// replacement and Clear) while the lock is held, so keep it cheap.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		entries:  make(map[K]*node[K, V], capacity),
		onEvict:  onEvict,
	}
}

// Get returns the value for key, promoting it to most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.order.moveToFront(n)
	return n.val, true
}

// Contains reports whether key is cached without promoting it or touching
// the hit/miss counters.
func (c *LRU[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Add inserts or replaces the value for key as most recently used, evicting
// the oldest entries while the cache sits over capacity. Replacing an
// existing entry hands the old value to the eviction callback but does not
// count as an eviction.
func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.entries[key]; ok {
		if c.onEvict != nil {
			c.onEvict(key, n.val)
		}
		n.val = val
		c.order.moveToFront(n)
		return
	}
	n := &node[K, V]{key: key, val: val}
	c.entries[key] = n
	c.order.pushFront(n)
	for len(c.entries) > c.capacity {
		c.removeOldest()
	}
}

// removeOldest evicts the tail entry. Caller holds the lock.
func (c *LRU[K, V]) removeOldest() {
	n := c.order.tail
	if n == nil {
		return
	}
	c.order.unlink(n)
	delete(c.entries, n.key)
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(n.key, n.val)
	}
}

// TrimOldest evicts up to n least-recently-used entries and returns how
// many were removed.
func (c *LRU[K, V]) TrimOldest(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for removed < n && c.order.tail != nil {
		c.removeOldest()
		removed++
	}
	return removed
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured entry cap.
func (c *LRU[K, V]) Capacity() int { return c.capacity }

// Clear removes every entry, running the eviction callback for each. The
// eviction counter is left untouched: Clear is a reset, not cache pressure.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onEvict != nil {
		for n := c.order.tail; n != nil; n = n.prev {
			c.onEvict(n.key, n.val)
		}
	}
	c.entries = make(map[K]*node[K, V], c.capacity)
	c.order = list[K, V]{}
}

// Stats is a point-in-time snapshot of the effectiveness counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns the counters accumulated since creation.
func (c *LRU[K, V]) Stats() Stats {
	h := c.hits.Load()
	m := c.misses.Load()
	s := Stats{Hits: h, Misses: m, Evictions: c.evictions.Load()}
	if total := h + m; total > 0 {
		s.HitRate = float64(h) / float64(total)
	}
	return s
}
