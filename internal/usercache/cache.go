// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package usercache provides a single-flight, idle-expiring cache in
// front of user profile lookups. Concurrent callers for the same id
// share one underlying fetch; entries are evicted after a period of no
// access, not a period since creation. "Not found" results are cached
// the same as found values.
package usercache

import (
	"context"
	"sync"
	"time"

	"github.com/yuno-tw/stb-api/internal/model"
)

// FetchFunc loads a user from storage. A (nil, nil) result means the
// user does not exist and is cached like any other value.
type FetchFunc func(ctx context.Context, userID int64) (*model.User, error)

// entry is one pending-or-resolved fetch. The ready channel closes when
// the fetch settles; lastAccess is touched on every Get.
type entry struct {
	ready      chan struct{}
	user       *model.User
	err        error
	lastAccess time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	fetch FetchFunc
	idle  time.Duration

	mu      sync.Mutex
	entries map[int64]*entry

	now  func() time.Time // test hook
	done chan struct{}
}

// Options configures the cache.
type Options struct {
	// Idle is the eviction window measured from last access.
	Idle time.Duration
	// SweepInterval is how often the janitor removes idle entries.
	// Zero disables the janitor; idle entries are then only replaced
	// lazily on access.
	SweepInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultIdle is the default idle eviction window.
const DefaultIdle = 3 * time.Minute

// New creates a cache over fetch.
func New(fetch FetchFunc, opts Options) *Cache {
	if opts.Idle <= 0 {
		opts.Idle = DefaultIdle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Cache{
		fetch:   fetch,
		idle:    opts.Idle,
		entries: make(map[int64]*entry),
		now:     opts.Now,
		done:    make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go c.sweepLoop(opts.SweepInterval)
	}

	return c
}

// Get returns the cached user for userID, issuing at most one
// underlying fetch per key at any time. Callers that arrive while a
// fetch is in flight wait for the same result.
func (c *Cache) Get(ctx context.Context, userID int64) (*model.User, error) {
	c.mu.Lock()
	e, ok := c.entries[userID]
	if ok && c.expired(e) {
		delete(c.entries, userID)
		ok = false
	}
	if ok {
		e.lastAccess = c.now()
		c.mu.Unlock()
	} else {
		e = &entry{ready: make(chan struct{}), lastAccess: c.now()}
		c.entries[userID] = e
		c.mu.Unlock()
		go c.resolve(userID, e)
	}

	select {
	case <-e.ready:
		return e.user, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve runs the underlying fetch and settles the entry. Failed
// fetches are evicted immediately so the next access retries instead of
// pinning the failure for the whole idle window.
func (c *Cache) resolve(userID int64, e *entry) {
	user, err := c.fetch(context.Background(), userID)

	c.mu.Lock()
	e.user = user
	e.err = err
	if err != nil && c.entries[userID] == e {
		delete(c.entries, userID)
	}
	c.mu.Unlock()

	close(e.ready)
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the janitor goroutine.
func (c *Cache) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// expired reports whether an entry has been idle past the window. A
// pending entry is never expired, however long its fetch takes, so an
// in-flight fetch is never duplicated.
func (c *Cache) expired(e *entry) bool {
	select {
	case <-e.ready:
	default:
		return false
	}
	return c.now().Sub(e.lastAccess) > c.idle
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, id)
		}
	}
}
