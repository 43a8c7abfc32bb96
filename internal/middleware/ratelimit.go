// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package middleware provides HTTP middleware for request logging and
// login throttling.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// LoginLimiter throttles the login route per client IP. The identity
// provider round trip makes login the most expensive unauthenticated
// endpoint, so it gets its own limiter instead of a global one.
type LoginLimiter struct {
	ips  *limiterCache[string]
	done chan struct{}
}

// LoginLimiterConfig holds login throttling configuration.
type LoginLimiterConfig struct {
	// RPS is requests per second per IP (default: 1).
	RPS float64
	// Burst is the maximum burst size per IP (default: 5).
	Burst int
}

// NewLoginLimiter creates a login throttle with a background cleanup
// goroutine. Call Close on shutdown.
func NewLoginLimiter(cfg LoginLimiterConfig) *LoginLimiter {
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	ll := &LoginLimiter{
		ips:  newLimiterCache[string](cfg.RPS, cfg.Burst),
		done: make(chan struct{}),
	}
	go ll.cleanup()
	return ll
}

// Allow reports whether a login attempt from ip may proceed.
func (ll *LoginLimiter) Allow(ip string) bool {
	return ll.ips.get(ip).Allow()
}

// Close stops the cleanup goroutine.
func (ll *LoginLimiter) Close() {
	select {
	case <-ll.done:
	default:
		close(ll.done)
	}
}

func (ll *LoginLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if ll.ips.clearIfExceeds(10000) {
				slog.Info("cleared login rate limiters due to size")
			}
		case <-ll.done:
			return
		}
	}
}

// Middleware returns the login throttling middleware. Throttled
// requests get a JSON 429 without reaching the handler. Keys on
// RemoteAddr; proxy headers are resolved upstream by chi's RealIP so a
// direct client cannot pick its own limiter key.
func (ll *LoginLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if !ll.Allow(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"statusCode": http.StatusTooManyRequests,
					"message":    "Too Many Requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
