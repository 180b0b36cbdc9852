package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a key or set member does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds in-process cache settings.
type Config struct {
	GCInterval time.Duration
}

type item struct {
	value    string
	deadline time.Time // zero means no expiry
}

func (it item) live(now time.Time) bool {
	return it.deadline.IsZero() || now.Before(it.deadline)
}

// Cache is a process-local stand-in for Redis covering the string and
// sorted-set operations the server uses, so a single binary can run
// with no external store. Expired keys stop being visible immediately
// and are reclaimed by a background sweep.
type Cache struct {
	mu     sync.RWMutex
	keys   map[string]item
	boards map[string]map[string]float64

	sweepEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates the cache and starts its expiry sweeper.
func New(cfg Config) (*Cache, error) {
	every := cfg.GCInterval
	if every <= 0 {
		every = 30 * time.Second
	}
	c := &Cache{
		keys:       make(map[string]item),
		boards:     make(map[string]map[string]float64),
		sweepEvery: every,
		done:       make(chan struct{}),
	}
	go c.sweep()
	return c, nil
}

// Close stops the sweeper.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Cache) sweep() {
	tick := time.NewTicker(c.sweepEvery)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			now := time.Now()
			c.mu.Lock()
			for k, it := range c.keys {
				if !it.live(now) {
					delete(c.keys, k)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	it, ok := c.keys[key]
	c.mu.RUnlock()
	if !ok || !it.live(time.Now()) {
		return "", ErrNotFound
	}
	return it.value, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	it := item{value: value}
	if ttl > 0 {
		it.deadline = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.keys[key] = it
	c.mu.Unlock()
	return nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.keys, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	it, ok := c.keys[key]
	c.mu.RUnlock()
	return ok && it.live(time.Now()), nil
}

// ZAdd inserts member with the given score, or rescores it if present.
func (c *Cache) ZAdd(_ context.Context, key string, score float64, member string) error {
	c.mu.Lock()
	b := c.boards[key]
	if b == nil {
		b = make(map[string]float64)
		c.boards[key] = b
	}
	b[member] = score
	c.mu.Unlock()
	return nil
}

type ranked struct {
	member string
	score  float64
}

// ZRevRange returns members ordered by score descending, start and stop
// inclusive. A negative stop means the last element, and ties order by
// member descending, both as in Redis.
func (c *Cache) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.RLock()
	all := make([]ranked, 0, len(c.boards[key]))
	for m, s := range c.boards[key] {
		all = append(all, ranked{member: m, score: s})
	}
	c.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].member > all[j].member
	})

	n := int64(len(all))
	if start < 0 {
		start = 0
	}
	if start >= n {
		return nil, nil
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	out := make([]string, 0, stop-start+1)
	for _, r := range all[start : stop+1] {
		out = append(out, r.member)
	}
	return out, nil
}

func (c *Cache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.RLock()
	s, ok := c.boards[key][member]
	c.mu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}
	return s, nil
}
