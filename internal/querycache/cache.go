// Package querycache holds server responses keyed by resource and status
// filter, with patch and invalidate operations for mutation handlers.
package querycache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/Makepad-fr/tada/internal/model"
)

// Resource names a family of cached queries.
type Resource string

const (
	Todos  Resource = "todos"
	Counts Resource = "todos-count"
)

// Key identifies one cached query.
type Key struct {
	Resource Resource
	Status   model.Status
}

// ListKey is the key of the todo list for a status filter.
func ListKey(s model.Status) Key { return Key{Resource: Todos, Status: s} }

// CountKey is the key of the todo count for a status filter.
func CountKey(s model.Status) Key { return Key{Resource: Counts, Status: s} }

func (k Key) String() string { return string(k.Resource) + ":" + string(k.Status) }

type entry struct {
	value     any
	updatedAt time.Time
	invalid   bool
}

// Cache is safe for concurrent use.
type Cache struct {
	sync.RWMutex
	entries   map[Key]*entry
	gens      map[Key]uint64 // bumped by every write that supersedes a running load
	staleTime time.Duration
	now       func() time.Time
	logger    *log.Logger
	flights   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleTime sets how long a fetched entry stays fresh. Zero means every
// fetch goes to the loader.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for hit/miss tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New builds an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[Key]*entry),
		gens:      make(map[Key]uint64),
		staleTime: 30 * time.Second,
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Get returns the cached value for key whether fresh or not.
func (c *Cache) Get(key Key) (any, bool) {
	c.RLock()
	defer c.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores a server-sourced value as fresh.
func (c *Cache) Set(key Key, v any) {
	c.Lock()
	c.entries[key] = &entry{value: v, updatedAt: c.now()}
	c.supersede(key)
	c.Unlock()
}

// supersede makes any load of key already running unable to store its
// result as fresh, and makes later fetches start a new load. c must be
// locked.
func (c *Cache) supersede(key Key) {
	c.gens[key]++
	c.flights.Forget(key.String())
}

// Patch replaces the value of key with fn(old). An entry that did not exist
// is created stale, so the next fetch still goes to the server.
func (c *Cache) Patch(key Key, fn func(old any, ok bool) any) {
	c.Lock()
	defer c.Unlock()
	c.supersede(key)
	e, ok := c.entries[key]
	if !ok {
		c.entries[key] = &entry{value: fn(nil, false), invalid: true}
		return
	}
	e.value = fn(e.value, true)
}

// Fresh reports whether key holds a valid value younger than the stale time.
func (c *Cache) Fresh(key Key) bool {
	c.RLock()
	defer c.RUnlock()
	return c.fresh(key)
}

func (c *Cache) fresh(key Key) bool {
	e, ok := c.entries[key]
	if !ok || e.invalid {
		return false
	}
	return c.now().Sub(e.updatedAt) < c.staleTime
}

// Invalidate marks every entry of the given resources stale. Values are kept
// for display until refetched. With no resources, everything is invalidated.
func (c *Cache) Invalidate(resources ...Resource) int {
	c.Lock()
	defer c.Unlock()
	match := func(k Key) bool {
		return len(resources) == 0 || containsResource(resources, k.Resource)
	}
	n := 0
	for k, e := range c.entries {
		if !match(k) {
			continue
		}
		e.invalid = true
		n++
	}
	for k := range c.gens {
		if match(k) {
			c.supersede(k)
		}
	}
	c.logger.Debug("cache invalidated", "resources", resources, "entries", n)
	return n
}

// Remove drops key entirely.
func (c *Cache) Remove(key Key) {
	c.Lock()
	delete(c.entries, key)
	c.supersede(key)
	c.Unlock()
}

// Keys returns the cached keys in a stable order.
func (c *Cache) Keys() []Key {
	c.RLock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Fetch returns the fresh cached value for key, or calls load, stores its
// result and returns it. Concurrent fetches of one key share a single load,
// which runs detached from the caller's cancellation so one caller giving up
// does not fail the others. A failed load leaves the cache untouched, and a
// load overtaken by Set, Patch, Invalidate or Remove never lands as fresh.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	c.RLock()
	if c.fresh(key) {
		if v, ok := c.entries[key].value.(T); ok {
			c.RUnlock()
			c.logger.Debug("cache hit", "key", key)
			return v, nil
		}
	}
	c.RUnlock()

	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c.logger.Debug("cache miss", "key", key)
	ch := c.flights.DoChan(key.String(), func() (any, error) {
		c.Lock()
		gen := c.gens[key]
		c.gens[key] = gen
		c.Unlock()

		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, gen, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// store saves a loaded value. When the key was written since the load
// started, the newer entry wins; with no entry left the value is kept stale.
func (c *Cache) store(key Key, gen uint64, v any) {
	c.Lock()
	defer c.Unlock()
	if c.gens[key] == gen {
		c.entries[key] = &entry{value: v, updatedAt: c.now()}
		return
	}
	c.logger.Debug("load superseded", "key", key)
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = &entry{value: v, updatedAt: c.now(), invalid: true}
	}
}

// Peek returns the cached value for key if it has type T, fresh or not.
func Peek[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// PatchTyped is Patch for values of type T. A missing or mistyped value is
// passed to fn as the zero T.
func PatchTyped[T any](c *Cache, key Key, fn func(old T) T) {
	c.Patch(key, func(old any, ok bool) any {
		var v T
		if ok {
			v, _ = old.(T)
		}
		return fn(v)
	})
}

func containsResource(rs []Resource, r Resource) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}
