package travel

import (
	"sync"
	"time"
)

// DefaultTravelDurationMinutes is substituted whenever a leg cannot be
// resolved.
const DefaultTravelDurationMinutes = 30

type entry struct {
	minutes  int
	resolved bool
	at       time.Time
}

// Cache memoizes resolved travel durations for the lifetime of the object.
// It is an optimization only: a missing entry resolves to the default.
// Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	m   map[Key]entry
	now func() time.Time
}

func NewCache() *Cache {
	return &Cache{m: map[Key]entry{}, now: time.Now}
}

// Get returns the stored entry for k. found is false when nothing is stored;
// resolved is false when the entry records an unresolved lookup.
func (c *Cache) Get(k Key) (minutes int, resolved, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[k]
	if !ok {
		return 0, false, false
	}
	return e.minutes, e.resolved, true
}

// Lookup returns the resolved minutes for k. ok is false for missing or
// unresolved entries; callers substitute the default.
func (c *Cache) Lookup(k Key) (int, bool) {
	minutes, resolved, found := c.Get(k)
	if !found || !resolved {
		return 0, false
	}
	return minutes, true
}

func (c *Cache) Set(k Key, minutes int) {
	c.mu.Lock()
	c.m[k] = entry{minutes: minutes, resolved: true, at: c.now()}
	c.mu.Unlock()
}

// SetUnresolved records that k could not be resolved.
func (c *Cache) SetUnresolved(k Key) {
	c.mu.Lock()
	c.m[k] = entry{at: c.now()}
	c.mu.Unlock()
}

// unresolvedSince returns when k was recorded unresolved.
func (c *Cache) unresolvedSince(k Key) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[k]
	if !ok || e.resolved {
		return time.Time{}, false
	}
	return e.at, true
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = map[Key]entry{}
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Lookup is the read side of a duration source.
type Lookup interface {
	Lookup(k Key) (int, bool)
}

// MapLookup is a fixed Lookup, handy for layout tests.
type MapLookup map[Key]int

func (m MapLookup) Lookup(k Key) (int, bool) {
	v, ok := m[k]
	return v, ok
}
