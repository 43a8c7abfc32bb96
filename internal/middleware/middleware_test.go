// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiterAllowsBurstThenThrottles(t *testing.T) {
	ll := NewLoginLimiter(LoginLimiterConfig{RPS: 0.001, Burst: 3})
	defer ll.Close()

	handler := ll.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/user/login/facebook", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestLoginLimiterIsolatesClients(t *testing.T) {
	ll := NewLoginLimiter(LoginLimiterConfig{RPS: 0.001, Burst: 1})
	defer ll.Close()

	require.True(t, ll.Allow("10.0.0.1"))
	require.False(t, ll.Allow("10.0.0.1"))
	assert.True(t, ll.Allow("10.0.0.2"), "one exhausted client must not throttle another")
}

func TestLoginLimiterIgnoresSpoofedProxyHeaders(t *testing.T) {
	ll := NewLoginLimiter(LoginLimiterConfig{RPS: 0.001, Burst: 1})
	defer ll.Close()

	handler := ll.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// A direct client rotating proxy headers must stay on one key.
	codes := make([]int, 0, 2)
	for _, spoofed := range []string{"203.0.113.7", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodPost, "/user/login/facebook", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Real-IP", spoofed)
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 429}, codes)
}

func TestRequestLoggerWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(&buf)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/missing?x=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	line := buf.String()
	assert.Contains(t, line, "GET")
	assert.Contains(t, line, "/missing?x=1")
	assert.Contains(t, line, "404")
	assert.Contains(t, line, "4B")
}
