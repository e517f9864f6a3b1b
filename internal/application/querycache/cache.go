// Package querycache keeps fetched page data keyed by route-like strings and
// drops it on invalidation, notifying every subscriber whose key matches.
package querycache

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxAge bounds how long an entry is served without a refetch.
const DefaultMaxAge = 30 * time.Second

// Key identifies cached data, for example "/players?sort=name" or "/players/42".
type Key string

// Matches reports whether invalidating prefix should drop k.
// A prefix matches itself and anything below it ("/players" matches
// "/players/42" and "/players?page=2"); it never matches "/players-archive".
func (k Key) Matches(prefix Key) bool {
	if k == prefix {
		return true
	}
	rest, ok := strings.CutPrefix(string(k), string(prefix))
	return ok && (strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?"))
}

// Observer receives cache hit and miss events.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry struct {
	value   any
	fetched time.Time
}

type subscriber struct {
	id  uint64
	key Key
	fn  func()
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]entry
	subs    []subscriber
	nextID  uint64
	gen     uint64 // bumped on every invalidation

	group    singleflight.Group
	clock    clockwork.Clock
	maxAge   time.Duration
	bus      Bus
	observer Observer
	stop     func()
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the clock used for entry age.
func WithClock(c clockwork.Clock) Option { return func(q *Cache) { q.clock = c } }

// WithMaxAge sets how long entries stay fresh. Zero disables caching of values
// while keeping invalidation fan-out.
func WithMaxAge(d time.Duration) Option { return func(q *Cache) { q.maxAge = d } }

// WithBus publishes invalidations to other instances.
func WithBus(b Bus) Option { return func(q *Cache) { q.bus = b } }

// WithObserver reports hits and misses.
func WithObserver(o Observer) Option { return func(q *Cache) { q.observer = o } }

// New creates a cache. Without options it uses the real clock, DefaultMaxAge
// and a process-local bus.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]entry),
		clock:   clockwork.NewRealClock(),
		maxAge:  DefaultMaxAge,
		bus:     LocalBus{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key, or calls fn and caches its result.
// Concurrent fetches of the same key share one call to fn, but only within one
// invalidation generation: a fetch started after an invalidation never joins
// one started before it. Errors are never cached.
// POST: a value fetched across an invalidation is returned but not stored
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			c.hit()
			return typed, nil
		}
	}
	c.miss()

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(flightKey(key, gen), func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		// Another caller shared the key with a different type.
		return fn(ctx)
	}
	c.store(key, typed, gen)
	return typed, nil
}

func flightKey(key Key, gen uint64) string {
	return strconv.FormatUint(gen, 10) + " " + string(key)
}

func (c *Cache) lookup(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Since(e.fetched) >= c.maxAge {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key Key, v any, gen uint64) {
	if c.maxAge <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.entries[key] = entry{value: v, fetched: c.clock.Now()}
}

// Subscribe registers fn to run whenever an invalidation matches key.
// fn runs on the invalidating goroutine, which may be another request or the
// bus listener, so it must only record the notification and return.
// The returned cancel func is idempotent.
func (c *Cache) Subscribe(key Key, fn func()) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, key: key, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Invalidate drops every entry matching one of keys, runs matching
// subscribers once each (in subscription order), then publishes the keys.
// A publish failure is logged; local invalidation has already happened.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) {
	c.invalidateLocal(keys)
	if err := c.bus.Publish(ctx, keys); err != nil {
		slog.WarnContext(ctx, "cache_invalidation_publish_failed", "keys", keys, "error", err)
	}
}

func (c *Cache) invalidateLocal(keys []Key) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	c.gen++
	for k := range c.entries {
		if matchesAny(k, keys) {
			delete(c.entries, k)
		}
	}
	var fns []func()
	for _, s := range c.subs {
		if matchesAny(s.key, keys) {
			fns = append(fns, s.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Listen applies invalidations published by other instances.
// PRE: called at most once
func (c *Cache) Listen() error {
	stop, err := c.bus.Listen(func(keys []Key) {
		c.invalidateLocal(keys)
	})
	if err != nil {
		return err
	}
	c.stop = stop
	return nil
}

// Close stops listening to the bus.
func (c *Cache) Close() {
	if c.stop != nil {
		c.stop()
	}
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) hit() {
	if c.observer != nil {
		c.observer.CacheHit()
	}
}

func (c *Cache) miss() {
	if c.observer != nil {
		c.observer.CacheMiss()
	}
}

func matchesAny(k Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if k.Matches(p) {
			return true
		}
	}
	return false
}
