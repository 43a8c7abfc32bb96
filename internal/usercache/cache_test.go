// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package usercache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuno-tw/stb-api/internal/model"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSingleFlight(t *testing.T) {
	var fetches atomic.Int64
	gate := make(chan struct{})

	cache := New(func(_ context.Context, userID int64) (*model.User, error) {
		fetches.Add(1)
		<-gate
		return &model.User{ID: userID, Name: "Wang Ming"}, nil
	}, Options{})
	defer cache.Close()

	const n = 50
	results := make([]*model.User, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			u, err := cache.Get(context.Background(), 42)
			assert.NoError(t, err)
			results[i] = u
		}(i)
	}

	// Give the callers time to pile up on the pending entry.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int64(1), fetches.Load(), "concurrent callers for one key must share a single fetch")
	for _, u := range results {
		require.NotNil(t, u)
		assert.Same(t, results[0], u)
	}
}

func TestIdleExpiry(t *testing.T) {
	clock := newFakeClock()
	var fetches atomic.Int64

	cache := New(func(_ context.Context, userID int64) (*model.User, error) {
		fetches.Add(1)
		return &model.User{ID: userID}, nil
	}, Options{Idle: 180 * time.Second, Now: clock.Now})
	defer cache.Close()

	ctx := context.Background()

	_, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetches.Load())

	// A hit inside the window reuses the entry.
	clock.Advance(100 * time.Second)
	_, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetches.Load())

	// The hit above refreshed last access, so another 100s is still a hit.
	clock.Advance(100 * time.Second)
	_, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetches.Load())

	// Past the idle window with no access: fresh fetch.
	clock.Advance(200 * time.Second)
	_, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetches.Load(), "an entry idle past the window must be refetched")
}

func TestSlowFetchOutlivingIdleWindowIsNotDuplicated(t *testing.T) {
	clock := newFakeClock()
	var fetches atomic.Int64
	gate := make(chan struct{})

	cache := New(func(_ context.Context, userID int64) (*model.User, error) {
		fetches.Add(1)
		<-gate
		return &model.User{ID: userID}, nil
	}, Options{Idle: 180 * time.Second, Now: clock.Now})
	defer cache.Close()

	ctx := context.Background()
	first := make(chan struct{})
	go func() {
		defer close(first)
		_, err := cache.Get(ctx, 1)
		assert.NoError(t, err)
	}()

	// Let the first fetch start, then age the pending entry past the
	// idle window before a second caller arrives.
	require.Eventually(t, func() bool {
		return fetches.Load() == 1
	}, 2*time.Second, time.Millisecond)
	clock.Advance(300 * time.Second)

	second := make(chan struct{})
	go func() {
		defer close(second)
		_, err := cache.Get(ctx, 1)
		assert.NoError(t, err)
	}()

	// Both callers must be parked on the same entry, not a second fetch.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), fetches.Load(), "a pending entry must never be replaced mid-flight")

	close(gate)
	<-first
	<-second
	assert.Equal(t, int64(1), fetches.Load())
}

func TestNotFoundIsCached(t *testing.T) {
	var fetches atomic.Int64

	cache := New(func(_ context.Context, _ int64) (*model.User, error) {
		fetches.Add(1)
		return nil, nil
	}, Options{})
	defer cache.Close()

	ctx := context.Background()
	u, err := cache.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = cache.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, int64(1), fetches.Load(), "a not-found result must be cached like a found value")
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	var fetches atomic.Int64

	cache := New(func(_ context.Context, userID int64) (*model.User, error) {
		if fetches.Add(1) == 1 {
			return nil, errors.New("database gone")
		}
		return &model.User{ID: userID}, nil
	}, Options{})
	defer cache.Close()

	ctx := context.Background()
	_, err := cache.Get(ctx, 8)
	require.Error(t, err)

	u, err := cache.Get(ctx, 8)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestDistinctKeysFetchIndependently(t *testing.T) {
	var fetches atomic.Int64

	cache := New(func(_ context.Context, userID int64) (*model.User, error) {
		fetches.Add(1)
		return &model.User{ID: userID}, nil
	}, Options{})
	defer cache.Close()

	ctx := context.Background()
	a, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	b, err := cache.Get(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestGetHonorsContextCancellation(t *testing.T) {
	gate := make(chan struct{})
	cache := New(func(_ context.Context, userID int64) (*model.User, error) {
		<-gate
		return &model.User{ID: userID}, nil
	}, Options{})
	defer cache.Close()
	defer close(gate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.Get(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJanitorSweepsIdleEntries(t *testing.T) {
	cache := New(func(_ context.Context, userID int64) (*model.User, error) {
		return &model.User{ID: userID}, nil
	}, Options{Idle: 20 * time.Millisecond, SweepInterval: 10 * time.Millisecond})
	defer cache.Close()

	_, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	require.Eventually(t, func() bool {
		return cache.Len() == 0
	}, 2*time.Second, 10*time.Millisecond, "idle entries must be swept")
}
